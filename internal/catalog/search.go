package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// TermSeparator splits a search expression into terms
const TermSeparator = "|"

type patternKey struct {
	expr          string
	caseSensitive bool
}

type searchPattern struct {
	re    *regexp.Regexp
	terms []string
}

// SearchTerms splits expr on '|', trims each term, drops empty ones and
// reduces each to its singular form
func SearchTerms(expr string) []string {
	terms := make([]string, 0)
	for _, raw := range strings.Split(expr, TermSeparator) {
		term := strings.TrimSpace(raw)
		if term == "" {
			continue
		}
		terms = append(terms, inflection.Singular(term))
	}
	return terms
}

// compile builds the alternation of quoted terms, cached per expression
func (c *Catalog) compile(expr string, caseSensitive bool) (*searchPattern, error) {
	key := patternKey{expr: expr, caseSensitive: caseSensitive}
	if p, ok := c.patterns.Get(key); ok {
		return p, nil
	}

	terms := SearchTerms(expr)
	if len(terms) == 0 {
		return nil, types.InvalidInputf("search expression has no terms")
	}

	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	source := strings.Join(quoted, "|")
	if !caseSensitive {
		source = "(?i)" + source
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}

	p := &searchPattern{re: re, terms: terms}
	c.patterns.Add(key, p)
	return p, nil
}

// Search returns the products whose keywords, name or description match any
// term of expr. Matching is case-insensitive unless caseSensitive is set.
func (c *Catalog) Search(ctx context.Context, expr string, caseSensitive bool) ([]*types.Product, error) {
	pattern, err := c.compile(expr, caseSensitive)
	if err != nil {
		return nil, err
	}

	products, err := c.storage.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	matches := make([]*types.Product, 0)
	for _, product := range products {
		if pattern.re.MatchString(product.Keywords) ||
			pattern.re.MatchString(product.Name) ||
			pattern.re.MatchString(product.Description) {
			matches = append(matches, product)
		}
	}

	c.log.Debug().Strs("terms", pattern.terms).Int("matches", len(matches)).Msg("catalog search")
	return matches, nil
}
