package amount

import (
	"errors"
	"math"
	"strconv"
)

const (
	NanoEDEN = 1e9
)

type Unit int

const (
	MegaEDEN  Unit = 6
	KiloEDEN  Unit = 3
	EDEN      Unit = 0
	MilliEDEN Unit = -3
	NanoUnit  Unit = -9
)

func (u Unit) String() string {
	switch u {
	case MegaEDEN:
		return "MEDEN"
	case KiloEDEN:
		return "kEDEN"
	case EDEN:
		return "EDEN"
	case MilliEDEN:
		return "mEDEN"
	case NanoUnit:
		return "nEDEN"
	default:
		return "1e" + strconv.FormatInt(int64(u), 10) + " EDEN"
	}
}

// Amount is the atomic accounting unit of the EDEN token.
// Each unit equals 1e-9 of an EDEN.
type Amount int64

func round(f float64) Amount {
	if f < 0 {
		return Amount(f - 0.5)
	}
	return Amount(f + 0.5)
}

func NewAmount(f float64) (Amount, error) {
	switch {
	case math.IsNaN(f),
		math.IsInf(f, 1),
		math.IsInf(f, -1):
		return 0, errors.New("invalid EDEN amount")
	}

	return round(f * float64(NanoEDEN)), nil
}

func FromString(str string) (Amount, error) {
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return NewAmount(f)
}

// FromEDEN converts whole tokens to atomic units.
func FromEDEN(tokens int64) Amount {
	return Amount(tokens * NanoEDEN)
}

func (a Amount) ToUnit(u Unit) float64 {
	return float64(a) / math.Pow10(int(u+9))
}

func (a Amount) ToEDEN() float64 {
	return a.ToUnit(EDEN)
}

func (a Amount) ToNano() int64 {
	return int64(a)
}

func (a Amount) Format(u Unit) string {
	units := " " + u.String()
	formatted := strconv.FormatFloat(a.ToUnit(u), 'f', -int(u+9), 64)
	return formatted + units
}

// String is the equivalent of calling Format with EDEN.
func (a Amount) String() string {
	return a.Format(EDEN)
}
