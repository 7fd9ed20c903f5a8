package smp

import (
	"fmt"
	"strings"
)

// Flavor is the REST protocol dialect served by the SMP.
type Flavor int

const (
	FlavorPeppolV1 Flavor = iota
	FlavorBDXRv1
	FlavorBDXRv2
)

// BDXRv2PathPrefix prefixes every OASIS BDXR SMP 2.0 route.
const BDXRv2PathPrefix = "/bdxr-smp-2"

func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(s) {
	case "", "peppol":
		return FlavorPeppolV1, nil
	case "bdxr", "bdxr1":
		return FlavorBDXRv1, nil
	case "bdxr2":
		return FlavorBDXRv2, nil
	default:
		return FlavorPeppolV1, fmt.Errorf("unknown REST flavor %q", s)
	}
}

func (f Flavor) String() string {
	switch f {
	case FlavorPeppolV1:
		return "peppol"
	case FlavorBDXRv1:
		return "bdxr"
	case FlavorBDXRv2:
		return "bdxr2"
	default:
		return "unknown"
	}
}

// PathPrefix is the URL prefix under which the flavor's routes live.
func (f Flavor) PathPrefix() string {
	if f == FlavorBDXRv2 {
		return BDXRv2PathPrefix
	}
	return ""
}
