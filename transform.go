package sealkit

import (
	"fmt"
	"log/slog"
	"strings"
)

// Transform is an {algorithm, block mode, padding} triple.
type Transform struct {
	Algorithm string
	Mode      string
	Padding   string
	// IVSize is the initialization vector length in bytes, zero for modes
	// without chaining.
	IVSize int
}

// The two transforms of the default provider.
var (
	// TransformRSA wraps session keys.
	TransformRSA = Transform{Algorithm: AlgorithmRSA, Mode: "ECB", Padding: "PKCS1Padding"}
	// TransformDESede encrypts bulk payloads.
	TransformDESede = Transform{Algorithm: AlgorithmDESede, Mode: "CBC", Padding: "PKCS5Padding", IVSize: 8}
)

// String renders the transform as "Algorithm/Mode/Padding".
func (t Transform) String() string {
	return t.Algorithm + "/" + t.Mode + "/" + t.Padding
}

// SelectTransform matches the key's algorithm name as a prefix of each
// registered transform and returns the first match. A key with no matching
// transform yields ErrUnsupportedAlgorithm.
func SelectTransform(key any) (Transform, error) {
	alg := KeyAlgorithm(key)
	if alg == "" {
		return Transform{}, fmt.Errorf("%w: key type %T", ErrUnsupportedAlgorithm, key)
	}
	for _, t := range Transforms() {
		if strings.HasPrefix(t.String(), alg) {
			slog.Debug("transform selected", "algorithm", alg, "transform", t)
			return t, nil
		}
	}
	return Transform{}, fmt.Errorf("%w: no transform for %s", ErrUnsupportedAlgorithm, alg)
}
