package evaluate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/namelens/brandlens/internal/schema"
)

// cacheKey hashes the request together with everything that changes the
// provider's answer.
func cacheKey(req schema.BrandEvaluationRequest, opts Options) (string, error) {
	payload, err := json.Marshal(struct {
		Request schema.BrandEvaluationRequest `json:"request"`
		Prompt  string                        `json:"prompt"`
		Model   string                        `json:"model"`
		Scope   string                        `json:"scope"`
	}{req, opts.Prompt, opts.Model, opts.CacheScope})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
