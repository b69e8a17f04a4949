package torch

import (
	"fmt"
	"strings"
)

// ErrorCondition is a set of transform error conditions to suppress
type ErrorCondition uint32

const (
	SuppressAddExistingRow     ErrorCondition = 0x01 // a
	SuppressDeleteMissingRow   ErrorCondition = 0x02 // b
	SuppressAddExistingTable   ErrorCondition = 0x04 // c
	SuppressDeleteMissingTable ErrorCondition = 0x08 // d
	SuppressUpdateMissingRow   ErrorCondition = 0x10 // e
	SuppressChangeCodepage     ErrorCondition = 0x20 // f
)

// Validation is a set of conditions checked before a transform applies
type Validation uint32

const (
	ValidateLanguage            Validation = 0x0001 // l
	ValidateProduct             Validation = 0x0002 // r
	ValidateMajorVersion        Validation = 0x0008 // s
	ValidateMinorVersion        Validation = 0x0010 // t
	ValidateUpdateVersion       Validation = 0x0020 // u
	ValidateNewLessBase         Validation = 0x0040 // v
	ValidateNewLessEqualBase    Validation = 0x0080 // w
	ValidateNewEqualBase        Validation = 0x0100 // x
	ValidateNewGreaterEqualBase Validation = 0x0200 // z
	ValidateNewGreaterBase      Validation = 0x0400 // y
	ValidateUpgradeCode         Validation = 0x0800 // g

	versionDepth      = ValidateMajorVersion | ValidateMinorVersion | ValidateUpdateVersion
	versionPredicates = ValidateNewLessBase | ValidateNewLessEqualBase | ValidateNewEqualBase |
		ValidateNewGreaterEqualBase | ValidateNewGreaterBase
)

var suppressLetters = []struct {
	letter rune
	flag   ErrorCondition
}{
	{'a', SuppressAddExistingRow},
	{'b', SuppressDeleteMissingRow},
	{'c', SuppressAddExistingTable},
	{'d', SuppressDeleteMissingTable},
	{'e', SuppressUpdateMissingRow},
	{'f', SuppressChangeCodepage},
}

var validationLetters = []struct {
	letter rune
	flag   Validation
}{
	{'g', ValidateUpgradeCode},
	{'l', ValidateLanguage},
	{'r', ValidateProduct},
	{'s', ValidateMajorVersion},
	{'t', ValidateMinorVersion},
	{'u', ValidateUpdateVersion},
	{'v', ValidateNewLessBase},
	{'w', ValidateNewLessEqualBase},
	{'x', ValidateNewEqualBase},
	{'y', ValidateNewGreaterBase},
	{'z', ValidateNewGreaterEqualBase},
}

// Flags controls how a transform is validated and applied
type Flags struct {
	Suppress ErrorCondition `json:"suppress" yaml:"suppress"`
	Validate Validation     `json:"validate" yaml:"validate"`
}

// Preset returns the flags of a named transform type
func Preset(name string) (Flags, error) {
	const allRowTable = SuppressAddExistingRow | SuppressDeleteMissingRow |
		SuppressAddExistingTable | SuppressDeleteMissingTable | SuppressUpdateMissingRow

	switch strings.ToLower(name) {
	case "language":
		return Flags{Suppress: SuppressChangeCodepage, Validate: ValidateProduct}, nil
	case "instance":
		return Flags{Suppress: allRowTable, Validate: ValidateProduct | ValidateUpgradeCode}, nil
	case "patch":
		return Flags{
			Suppress: allRowTable,
			Validate: ValidateProduct | ValidateUpdateVersion | ValidateNewGreaterEqualBase | ValidateUpgradeCode,
		}, nil
	default:
		return Flags{}, fmt.Errorf("unknown transform type %q (want language, instance or patch)", name)
	}
}

// ParseSuppress parses error condition letters a-f
func ParseSuppress(s string) (ErrorCondition, error) {
	var out ErrorCondition
	for _, r := range strings.ToLower(s) {
		found := false
		for _, l := range suppressLetters {
			if l.letter == r {
				out |= l.flag
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown error condition %q", r)
		}
	}
	return out, nil
}

// ParseValidation parses validation letters g, l and r-z
func ParseValidation(s string) (Validation, error) {
	var out Validation
	for _, r := range strings.ToLower(s) {
		found := false
		for _, l := range validationLetters {
			if l.letter == r {
				out |= l.flag
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown validation condition %q", r)
		}
	}
	return out, nil
}

// String returns the letters of the set conditions
func (e ErrorCondition) String() string {
	var b strings.Builder
	for _, l := range suppressLetters {
		if e&l.flag != 0 {
			b.WriteRune(l.letter)
		}
	}
	return b.String()
}

// String returns the letters of the set conditions
func (v Validation) String() string {
	var b strings.Builder
	for _, l := range validationLetters {
		if v&l.flag != 0 {
			b.WriteRune(l.letter)
		}
	}
	return b.String()
}
