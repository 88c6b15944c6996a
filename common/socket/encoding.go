package socket

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type Candidate struct {
	Name     string
	Encoding encoding.Encoding
}

var UTF8 = Candidate{"UTF-8", unicode.UTF8}
var Latin1 = Candidate{"ISO-8859-1", charmap.ISO8859_1}
var Windows1252 = Candidate{"windows-1252", charmap.Windows1252}
var Latin9 = Candidate{"ISO-8859-15", charmap.ISO8859_15}

var DefaultEncoding = UTF8

//	Candidates are probed in order; the first one that reproduces the probe
//	text wins.
var Candidates = []Candidate{UTF8, Latin1, Windows1252, Latin9}

//	EncodingProbe is sent by clients right after the key check. Every
//	candidate can represent it, and the single byte charsets differ from
//	UTF-8 on each character.
const EncodingProbe = "àéîõü"

func DetectEncoding(raw []byte, candidates []Candidate) (Candidate, bool) {
	for _, candidate := range candidates {
		decoded, err := candidate.Encoding.NewDecoder().Bytes(raw)
		if err == nil && string(decoded) == EncodingProbe {
			return candidate, true
		}
	}
	return DefaultEncoding, false
}

//	CandidateByName looks a candidate up by its name, ignoring case.
func CandidateByName(name string) (Candidate, bool) {
	for _, candidate := range Candidates {
		if strings.EqualFold(candidate.Name, name) {
			return candidate, true
		}
	}
	return DefaultEncoding, false
}
