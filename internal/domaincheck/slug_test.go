package domaincheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Zynth":       "zynth",
		"Blue Harbor": "blueharbor",
		"Café Noir!":  "cafnoir",
		"-Kavo-":      "kavo",
		"X-Ray 9":     "x-ray9",
		"***":         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestDomainFor(t *testing.T) {
	assert.Equal(t, "zynth.com", DomainFor("Zynth", ""))
	assert.Equal(t, "zynth.io", DomainFor("Zynth", ".IO"))
	assert.Equal(t, "", DomainFor("!!!", "com"))
}

func TestAnnotate(t *testing.T) {
	available := &Result{Domain: "zynth.com", Status: StatusAvailable}
	assert.Equal(t, "zynth.com: available (RDAP verified). Likely premium.", Annotate(available, "Likely premium."))
	assert.Equal(t, "zynth.com: available (RDAP verified).", Annotate(available, ""))

	unknown := &Result{Domain: "zynth.com", Status: StatusError}
	assert.Equal(t, "Likely premium.", Annotate(unknown, "Likely premium."))
	assert.Equal(t, "text", Annotate(nil, "text"))
}
