package feeds

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

// DefaultSources is the built-in source list used when no sources file
// is configured.
func DefaultSources() []models.FeedSource {
	return []models.FeedSource{
		{URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Source: "BBC", Category: models.CategoryWorld},
		{URL: "http://rss.cnn.com/rss/edition_world.rss", Source: "CNN", Category: models.CategoryWorld},
		{URL: "https://techcrunch.com/feed/", Source: "TechCrunch", Category: models.CategoryTech},
		{URL: "https://feeds.bbci.co.uk/news/business/rss.xml", Source: "BBC", Category: models.CategoryBusiness},
		{URL: "http://rss.cnn.com/rss/edition_technology.rss", Source: "CNN", Category: models.CategoryTech},
		{URL: "http://rss.cnn.com/rss/edition_business.rss", Source: "CNN", Category: models.CategoryBusiness},
		{URL: "https://www.theguardian.com/world/rss", Source: "The Guardian", Category: models.CategoryWorld},
		{URL: "https://www.aljazeera.com/xml/rss/all.xml", Source: "Al Jazeera", Category: models.CategoryWorld},
		{URL: "https://hnrss.org/frontpage", Source: "Hacker News", Category: models.CategoryTech},
		{URL: "https://feeds.npr.org/1001/rss.xml", Source: "NPR", Category: models.CategoryWorld},
		{URL: "https://www.wired.com/feed/rss", Source: "Wired", Category: models.CategoryTech},
		{URL: "https://www.thehindu.com/news/international/feeder/default.rss", Source: "The Hindu", Category: models.CategoryWorld},
		{URL: "https://feeds.bbci.co.uk/news/science_and_environment/rss.xml", Source: "BBC", Category: models.CategoryScience},
		{URL: "http://rss.cnn.com/rss/edition_space.rss", Source: "CNN", Category: models.CategoryScience},
	}
}

type sourcesFile struct {
	Sources []models.FeedSource `yaml:"sources"`
}

// LoadSources reads a YAML source list, or returns DefaultSources when
// path is empty. Every entry is validated.
func LoadSources(path string) ([]models.FeedSource, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a YAML source list
func ParseSources(data []byte) ([]models.FeedSource, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file lists no sources")
	}

	for i, source := range file.Sources {
		if err := core.ValidateStruct(source); err != nil {
			return nil, fmt.Errorf("source %d: %w", i+1, err)
		}
	}
	return file.Sources, nil
}
