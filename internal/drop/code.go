package drop

import "crypto/rand"

// codeAlphabet avoids lookalike characters (no I, O, 1, 0) so codes
// survive being read aloud or typed from another screen.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of symbols in a drop code. 32 symbols at
// length 6 gives ~10^9 codes, far beyond any plausible live-session
// count.
const CodeLength = 6

// randomCode draws one candidate code. Uniqueness against live
// sessions is the registry's job, see Registry.NewCode.
func randomCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("drop: crypto/rand unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
