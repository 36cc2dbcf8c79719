package steps

// activityVocabulary is the controlled set of activity keys and the phrases
// that name them.
var activityVocabulary = []option{
	{"coffee", []string{"cafe", "café", "latte", "espresso", "tea"}},
	{"walk", []string{"walks", "walking", "stroll", "neighborhood walk"}},
	{"hike", []string{"hikes", "hiking", "trail", "trails"}},
	{"museum", []string{"museums", "gallery", "galleries", "exhibit", "art show"}},
	{"board_games", []string{"board games", "board game", "game night", "games night", "boardgames"}},
	{"trivia", []string{"pub quiz", "quiz night", "quiz"}},
	{"cooking", []string{"cook", "cooking class", "potluck"}},
	{"brunch", []string{"breakfast out"}},
	{"dinner", []string{"dinners", "restaurant", "restaurants", "food"}},
	{"drinks", []string{"bar", "bars", "happy hour", "wine", "beer", "cocktails"}},
	{"movies", []string{"movie", "cinema", "film", "films"}},
	{"live_music", []string{"concert", "concerts", "live music", "gig", "gigs", "show", "shows"}},
	{"climbing", []string{"climb", "bouldering", "rock climbing"}},
	{"yoga", []string{"pilates", "stretching"}},
	{"running", []string{"run", "runs", "jog", "jogging", "run club"}},
	{"cycling", []string{"bike", "biking", "bike ride", "cycle"}},
	{"book_club", []string{"book club", "books", "book", "reading"}},
	{"volunteering", []string{"volunteer", "volunteer work", "service"}},
	{"karaoke", []string{"singing"}},
	{"bowling", []string{"bowl"}},
	{"picnic", []string{"picnics", "park"}},
	{"beach", []string{"beaches", "swimming", "swim"}},
	{"dancing", []string{"dance", "salsa", "dance class"}},
	{"pickleball", []string{"tennis", "badminton"}},
}

var activities = choiceSet{options: activityVocabulary}

// ActivityKeys returns every activity key in the vocabulary.
func ActivityKeys() []string {
	out := make([]string, len(activityVocabulary))
	for i, o := range activityVocabulary {
		out[i] = o.value
	}
	return out
}

// MatchActivities returns the distinct activity keys named in text, in order
// of appearance.
func MatchActivities(text string) []string {
	return activities.resolve(text, len(activityVocabulary))
}

var consentChoices = choiceSet{options: []option{
	{"yes", []string{"y", "yeah", "yep", "yup", "sure", "ok", "okay", "let's go", "lets go", "start", "ready", "absolutely", "go"}},
	{"later", []string{"not now", "maybe later", "busy", "tomorrow", "another time", "wait", "pause"}},
}}

// Motive values double as motive weight keys.
const (
	MotiveConnection = "connection"
	MotiveNovelty    = "novelty"
	MotiveFun        = "fun"
	MotiveAdventure  = "adventure"
)

// Motives lists the motive weight keys in prompt order.
var Motives = []string{MotiveConnection, MotiveNovelty, MotiveFun, MotiveAdventure}

var motiveChoices = choiceSet{letters: true, numerals: true, options: []option{
	{MotiveConnection, []string{"connecting", "connect", "people", "meeting people", "friends", "community", "belonging"}},
	{MotiveNovelty, []string{"new", "something new", "trying something new", "learning", "learn", "discover", "curious"}},
	{MotiveFun, []string{"having fun", "laugh", "laughs", "play", "playing"}},
	{MotiveAdventure, []string{"adventure", "adventures", "outdoors", "getting out", "thrill", "explore", "exploring", "active"}},
}}

var styleChoices = choiceSet{letters: true, numerals: true, options: []option{
	{"deep", []string{"deep talks", "deep talk", "meaningful", "real talk", "one on one", "serious"}},
	{"banter", []string{"light banter", "light", "jokes", "joking", "playful", "witty", "chit chat"}},
	{"stories", []string{"story", "storytelling", "swapping stories", "sharing"}},
	{"listening", []string{"listen", "listener", "mostly listening", "quiet"}},
}}

var paceChoices = choiceSet{numerals: true, options: []option{
	{"slow", []string{"chill", "low key", "lowkey", "easy", "relaxed", "slowly"}},
	{"medium", []string{"moderate", "middle", "mix", "balanced", "in between", "in the middle", "normal"}},
	{"fast", []string{"quick", "high energy", "packed", "fast paced"}},
}}

var groupChoices = choiceSet{letters: true, options: []option{
	{"2-3", []string{"2", "3", "two", "three", "2 to 3", "small", "small group", "couple", "few", "tiny"}},
	{"4-6", []string{"4", "5", "6", "four", "five", "six", "4 to 6", "medium", "mid size", "midsize"}},
	{"7+", []string{"7", "8", "9", "10", "seven", "big", "large", "big group", "large group", "lots", "crowd"}},
}}

var groupRanges = map[string][2]int{
	"2-3": {2, 3},
	"4-6": {4, 6},
	"7+":  {7, 12},
}

var valuesChoices = choiceSet{letters: true, numerals: true, options: []option{
	{"reliability", []string{"reliable", "dependable", "shows up", "show up", "on time", "consistent"}},
	{"curiosity", []string{"curious", "open minded", "open-minded", "interesting"}},
	{"kindness", []string{"kind", "warm", "friendly", "caring", "nice"}},
	{"humor", []string{"humour", "funny", "laughs", "sense of humor"}},
}}

// Time preference values.
var TimePreferences = []string{"morning", "afternoon", "evening", "weekend"}

var timeChoices = choiceSet{letters: true, numerals: true, options: []option{
	{"morning", []string{"mornings", "breakfast", "early"}},
	{"afternoon", []string{"afternoons", "lunch", "midday", "noon"}},
	{"evening", []string{"evenings", "night", "nights", "after work", "tonight"}},
	{"weekend", []string{"weekends", "saturday", "saturdays", "sunday", "sundays", "sat", "sun"}},
}}

var structureChoices = choiceSet{numerals: true, options: []option{
	{"planned", []string{"plan", "plans", "planned ahead", "schedule", "scheduled", "organized", "structured", "ahead"}},
	{"flexible", []string{"either", "depends", "loose", "whatever", "both"}},
	{"spontaneous", []string{"last minute", "spur of the moment", "wing it", "go with the flow", "spontaneously"}},
}}

var skipPhrases = []string{
	"prefer not to say", "prefer not", "rather not say", "rather not", "i'd rather not say",
	"pass", "skip", "no comment", "pnts", "private", "not saying",
}

var noBoundaryPhrases = []string{
	"none", "nothing", "no", "nope", "nah", "all good", "i'm open", "im open", "open to anything",
	"anything goes", "nothing really", "not really",
}

var ordinalWords = map[string]int{
	"first": 0, "1st": 0, "the first": 0, "the first one": 0,
	"second": 1, "2nd": 1, "the second": 1, "the second one": 1,
	"third": 2, "3rd": 2, "the third": 2, "the third one": 2,
}
