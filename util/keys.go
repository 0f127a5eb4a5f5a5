package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/bidtounsi/go-bidtounsi-server/types"
)

const (
	adminKeyPrefix   = "BT" // BidTounsi
	requestKeyPrefix = "BIDTOUNSI"

	requestKeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	// canonical key shapes, validated at generation and again before redemption
	adminKeyRegex   = regexp.MustCompile(`^BT-[0-9A-F]{8}-[0-9A-F]{8}-[0-9A-F]{8}$`)
	requestKeyRegex = regexp.MustCompile(`^BIDTOUNSI_[A-Z0-9]{12}_[A-Z0-9]{6}$`)
)

// GenerateAdminKey produces a long-lived admin key of the form
// BT-XXXXXXXX-XXXXXXXX-XXXXXXXX (96 bits of entropy from crypto/rand)
func GenerateAdminKey() string {
	parts := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(err) // crypto/rand failure means the process cannot mint secrets
		}
		parts = append(parts, strings.ToUpper(hex.EncodeToString(randomBytes)))
	}
	return fmt.Sprintf("%s-%s", adminKeyPrefix, strings.Join(parts, "-"))
}

// GenerateRequestKey produces a short-lived request key of the form
// BIDTOUNSI_XXXXXXXXXXXX_XXXXXX (18 base36 symbols, ~93 bits of entropy)
func GenerateRequestKey() string {
	var b strings.Builder
	b.WriteString(requestKeyPrefix)
	b.WriteString("_")
	b.WriteString(randomCharset(12))
	b.WriteString("_")
	b.WriteString(randomCharset(6))
	return b.String()
}

// GenerateKey dispatches on the key kind
func GenerateKey(kind types.KeyKind) string {
	if kind == types.KeyKindAdmin {
		return GenerateAdminKey()
	}
	return GenerateRequestKey()
}

func randomCharset(length int) string {
	max := big.NewInt(int64(len(requestKeyCharset)))
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		out[i] = requestKeyCharset[n.Int64()]
	}
	return string(out)
}

// IsAdminKeyFormat validates the long-lived key shape
func IsAdminKeyFormat(key string) bool {
	return adminKeyRegex.MatchString(key)
}

// IsRequestKeyFormat validates the short-lived key shape
func IsRequestKeyFormat(key string) bool {
	return requestKeyRegex.MatchString(key)
}

// IsKeyFormat accepts either canonical key shape
func IsKeyFormat(key string) bool {
	return IsAdminKeyFormat(key) || IsRequestKeyFormat(key)
}
