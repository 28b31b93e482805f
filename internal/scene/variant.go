package scene

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Variant names one of the mesh builders a scene can drive.
type Variant string

const (
	VariantSimple     Variant = "simple"
	VariantBlock      Variant = "block"
	VariantFlatCorner Variant = "flat-corner"
	VariantRing       Variant = "ring"
	VariantInset      Variant = "inset"
	VariantColumn     Variant = "column"
)

var ErrUnknownVariant = errors.New("unknown mesh variant")

var allVariants = []Variant{VariantSimple, VariantBlock, VariantFlatCorner, VariantRing, VariantInset, VariantColumn}

func Variants() []Variant {
	return slices.Clone(allVariants)
}

func ParseVariant(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(allVariants, v) {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// ParseVariants parses every name, dropping repeats but keeping first-seen order.
func ParseVariants(names []string) ([]Variant, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no variants given")
	}
	out := make([]Variant, 0, len(names))
	for _, name := range names {
		v, err := ParseVariant(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}
