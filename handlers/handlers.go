// Package handlers ships relation capability objects for the interfaces
// OpenStack style service charms commonly consume. A charm composes the
// handlers it needs and injects them into the reconciler, there is no
// inheritance anywhere.
package handlers

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titler = cases.Title(language.English)

// namespaceFor turns a relation endpoint into its render context namespace,
// e.g. identity-service becomes IdentityService.
func namespaceFor(endpoint string) string {
	parts := strings.Split(endpoint, "-")
	for i, p := range parts {
		parts[i] = titler.String(p)
	}
	return strings.Join(parts, "")
}
