package indicator

import "fmt"

// Kind identifies one indicator family. Dispatch over kinds is a closed
// switch so adding a family is a compile-visible change, not a runtime
// string lookup.
type Kind int

const (
	KindMA Kind = iota
	KindMACD
	KindDMI
	KindTRIX
	KindRSI
	KindKDJ
	KindCCI
	KindROC
	KindMTM
	KindBoll
	KindWR
	KindBRAR
	KindASI
	KindEMV
	KindMCST
	KindOBV
	KindVR
	KindPSY
	KindVolMA
)

var kindNames = map[Kind]string{
	KindMA:    "ma",
	KindMACD:  "macd",
	KindDMI:   "dmi",
	KindTRIX:  "trix",
	KindRSI:   "rsi",
	KindKDJ:   "kdj",
	KindCCI:   "cci",
	KindROC:   "roc",
	KindMTM:   "mtm",
	KindBoll:  "boll",
	KindWR:    "wr",
	KindBRAR:  "brar",
	KindASI:   "asi",
	KindEMV:   "emv",
	KindMCST:  "mcst",
	KindOBV:   "obv",
	KindVR:    "vr",
	KindPSY:   "psy",
	KindVolMA: "vol_ma",
}

// String returns the canonical lowercase family name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a family name to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown indicator kind: %q", name)
}

// AllKinds returns every indicator family in display order.
func AllKinds() []Kind {
	return []Kind{
		KindMA, KindMACD, KindDMI, KindTRIX,
		KindRSI, KindKDJ, KindCCI, KindROC, KindMTM,
		KindBoll, KindWR, KindBRAR, KindASI, KindEMV, KindMCST,
		KindOBV, KindVR, KindPSY, KindVolMA,
	}
}
