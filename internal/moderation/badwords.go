package moderation

// badWords is the denylist scanned over lowercase letter runs. A single hit
// auto-bans the post.
var badWords = []string{
	"airdropscam",
	"ass",
	"asshole",
	"bastard",
	"bitch",
	"bollocks",
	"boobs",
	"bullshit",
	"cialis",
	"clickbait",
	"cock",
	"crap",
	"cunt",
	"dick",
	"dickhead",
	"douche",
	"drainer",
	"dumbass",
	"fuck",
	"fucked",
	"fucker",
	"fucking",
	"gambleaware",
	"giveawayscam",
	"handjob",
	"hentai",
	"hooker",
	"horny",
	"jackass",
	"jerk",
	"masturbate",
	"milf",
	"motherfucker",
	"nude",
	"nudes",
	"onlyfans",
	"orgy",
	"penis",
	"phishing",
	"pimp",
	"piss",
	"porn",
	"porno",
	"prick",
	"prostitute",
	"pussy",
	"rugpull",
	"scammer",
	"seedphrase",
	"sex",
	"sexy",
	"shit",
	"shitcoin",
	"slut",
	"tits",
	"twat",
	"viagra",
	"wanker",
	"whore",
	"xxx",
}

var badWordsSet = toSet(badWords)
