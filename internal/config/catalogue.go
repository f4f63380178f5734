package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CategoryKeywords is one market category and its keywords, in the order
// they appear in the catalogue file. Keywords are collected in this order.
type CategoryKeywords struct {
	Name     string
	Keywords []string
}

// Catalogue is the fixed keyword catalogue, categories in file order.
type Catalogue struct {
	Categories []CategoryKeywords
}

// Keywords returns the keyword list for a category, or false if the
// category is not in the catalogue.
func (c *Catalogue) Keywords(category string) ([]string, bool) {
	for _, cat := range c.Categories {
		if cat.Name == category {
			return cat.Keywords, true
		}
	}
	return nil, false
}

// TotalKeywords counts keywords across every category.
func (c *Catalogue) TotalKeywords() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Keywords)
	}
	return n
}

// LoadCatalogue reads a category -> keywords mapping from a YAML file.
// The yaml.v3 node API is used instead of a plain map so that category
// order in the file is preserved; collection order is part of the contract.
func LoadCatalogue(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read keywords file %s", path)
	}
	return ParseCatalogue(data)
}

// ParseCatalogue parses catalogue YAML, preserving category order.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "config: parse keywords yaml")
	}
	if len(doc.Content) == 0 {
		return &Catalogue{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, eris.New("config: keywords file must be a mapping of category to keyword list")
	}

	cat := &Catalogue{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		var keywords []string
		if err := valNode.Decode(&keywords); err != nil {
			return nil, eris.Wrapf(err, "config: keywords for category %s", keyNode.Value)
		}

		cat.Categories = append(cat.Categories, CategoryKeywords{
			Name:     keyNode.Value,
			Keywords: keywords,
		})
	}
	return cat, nil
}
