package frontmatter

import (
	"fmt"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata of a page. ID is the entity id used for gallery grouping and stays
// empty for drafts that were never published.
type Metadata struct {
	ID               string    `yaml:"id"`
	Title            string    `yaml:"title"`
	ShortDescription string    `yaml:"shortDescription"`
	PublishedTime    time.Time `yaml:"publishedTime"`
	Tags             []string  `yaml:"tags"`
}

var frontmatterRegex = regexp.MustCompile(`^---\s*\r?\n([\s\S]*?)\r?\n---\s*\r?\n([\s\S]*)$`)

func ParseFrontmatter(content []byte) (metadata *Metadata, markdown []byte, err error) {
	matches := frontmatterRegex.FindSubmatch(content)

	if len(matches) != 3 {
		return &Metadata{}, content, nil
	}

	yamlContent := matches[1]
	markdownContent := matches[2]

	metadata = &Metadata{}
	if err := yaml.Unmarshal(yamlContent, metadata); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}

	return metadata, markdownContent, nil
}
