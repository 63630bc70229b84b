package moderation

// baseWords is the general-purpose profanity dictionary.
var baseWords = []string{
	"arse", "arsehole", "asshole", "assholes", "bastard", "bastards",
	"bitch", "bitches", "bitching", "blowjob", "bollocks", "boner",
	"bullshit", "clit", "cocksucker", "cunt", "cunts", "dickhead",
	"dildo", "dipshit", "douchebag", "fag", "faggot", "fellatio",
	"fucker", "fuckers", "fucked", "fuckface", "fuckhead", "goddamn",
	"handjob", "hentai", "horny", "jackass", "jerkoff", "jizz",
	"milf", "motherfucker", "nigga", "nigger", "orgasm", "orgy",
	"penises", "pornhub", "porno", "pornography", "prick", "pussies",
	"rape", "rapist", "retard", "schlong", "scrotum", "semen",
	"shit", "shitty", "slut", "sluts", "smut", "testicle",
	"tits", "titties", "twat", "wank", "wanker", "whore",
	"blow job", "hand job", "jerk off",
}

// extensionWords are domain-specific additions for token launch content.
var extensionWords = []string{
	"sex", "sexy", "sexcoin", "porn", "xxx", "nsfw", "nude", "onlyfans",
	"fuck", "fucking", "fuk", "fuking",
	"pussy", "dick", "cock", "penis", "vagina", "cum", "anal", "oral",
	"boob", "tit", "ass",
}

// DefaultWords returns the base dictionary plus the extension list.
// Brand terms are configured separately, see Blocklist.
func DefaultWords() []string {
	out := make([]string, 0, len(baseWords)+len(extensionWords))
	out = append(out, baseWords...)
	return append(out, extensionWords...)
}
