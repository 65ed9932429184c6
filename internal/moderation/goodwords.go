package moderation

// goodWords is the benign-token allow list for the heuristic classifier
// stage: a post whose every token is in this set counts as predefined.
var goodWords = []string{
	"hi", "hello", "gm", "lfg", "venom", "ylide", "lets", "go", "to", "the", "moon", "everybody",
	"is", "a", "here", "nice", "day", "great", "project", "venoms", "yup", "all", "when", "mainnet",
	"airdrop", "this", "first", "message", "chain", "awesome", "wow", "cool", "my", "blockchain",
	"very", "good", "done", "nft", "venomians", "community", "sir", "and", "strong", "i", "m",
	"eagerly", "waiting", "for", "launch", "will", "be", "next", "big", "thing", "vamos", "wagmi",
	"hodl", "wewillsee", "network", "best", "fore", "ever", "love", "how", "are", "you", "family",
	"friends", "brothers", "fam", "looking", "hot", "enthusiastic", "amazing", "it", "gang",
	"welcome", "activity", "on", "has", "been", "interesting", "which", "shows", "sound", "dedicated",
	"team", "am", "bringing", "something", "web", "ecosystem", "proud", "part", "of", "partnership",
	"with", "must", "say", "about", "politics", "applesauce", "n", "smooth", "experience", "speed",
	"in", "future", "its", "hoping", "success", "us", "let", "s", "real", "deal", "what", "top", "an",
	"glad", "morning", "everyone", "dont", "miss", "hii", "exciting", "re", "beautiful", "true",
	"topnotch", "hey", "enthusiasts", "just", "arrived", "realm", "excited", "connect", "like",
	"minded", "people", "happy", "tester", "testnet", "luck", "really", "world", "mates", "guys",
	"so", "far", "greatest", "forward", "as", "excel", "promising", "always", "support", "gonna",
	"than", "doing", "by", "introducing", "superb", "smoothly", "transaction", "testing", "have",
	"stay", "tuned", "them", "earn", "reliable", "hyper", "idea", "y", "most", "popular", "crypto",
	"platform", "wonderful", "enjoying", "every", "bit", "test", "okay", "bright", "rock", "your",
	"perfect", "me", "im", "bullish", "joining", "seeking", "inspiration", "from", "minds", "within",
	"because", "thrive", "that", "coming", "market", "roll", "simplicity", "hopeful", "expect",
	"continue", "kiss", "kudos", "power", "users", "appreciate", "everything", "do", "new", "early",
	"beginnings", "feeling", "wavy", "leading", "together", "count", "among", "hopefully", "going",
	"seen", "game", "changer", "knowledge", "diverse", "super", "whatsup", "join", "foundation", "yo",
	"huge", "come", "hope", "can", "feel", "trust", "there", "things", "see", "dear", "job", "safe",
	"security", "hub", "changing", "believe", "should", "revolution", "drive", "innovation",
	"fantastic", "god", "bull", "incoming", "lovely", "indeed", "nicee", "x", "belive", "fly",
	"bigger", "then", "other", "blockchains", "smart", "complete", "ups", "biggest", "year", "keep",
	"task", "user", "make", "more", "active", "token", "wave", "remember", "words", "was",
	"definitely", "beyond", "dive", "too", "massive", "feed", "loved", "projects", "get", "along",
	"excellent", "frens", "wishing", "favourite", "yes", "enjoy", "life", "looks", "epic", "vibes",
	"fine", "meet", "wallet", "post", "soon", "wish", "proof", "respect", "we", "interested", "time",
	"check", "fast", "cannot", "wait", "friend", "fabulous", "bitcoin", "frog", "devs", "devoted",
	"transparent", "easy", "hear", "news", "think", "king", "field", "try", "add", "another", "one",
	"thank", "campaign", "side", "collaboration", "performance", "app", "ready", "member", "cause",
	"growing", "up", "could", "elegant", "executed", "professional", "head", "having", "mainview",
	"layer", "thanks", "ok", "work", "yet", "swift", "interact", "opportunity", "fellow", "yourself",
	"anticipating", "now", "much", "funding", "lot", "trying", "fully", "loaded", "innovations",
	"creative", "exist", "name", "sounds", "mars", "champion", "yeah", "potential", "starknet",
	"share", "favorite", "moments", "passions", "dreams", "smoothest", "use", "friendly", "both",
	"mobile", "pc", "loving", "officially", "launched", "venomtestnet", "create", "communication",
	"apps", "building", "lego", "set", "multichain", "begin", "journey", "website", "ui", "ux",
	"design", "sure", "watch", "out", "coin", "pro", "lambo", "space", "cheers", "revive",
	"management", "highly", "organised", "focus", "expansion", "growth", "being", "pioneers",
	"possibilities", "endless", "social", "famous", "thus", "look", "simple", "choice", "inevitable",
	"upcoming", "accumulate", "shot", "accurate", "contribute", "their", "mostly", "totally",
	"likely", "improvement", "only", "way", "venomous", "well", "making", "progress", "quickly",
	"potentials", "blessed", "honour", "media", "many", "solid", "successful", "career", "prosperity",
	"call", "baby", "used", "take", "off", "years", "bros", "sis", "viva", "starting", "quest",
	"today", "venomites", "fire", "evening", "full", "privacy", "e", "encryption", "sign",
}
