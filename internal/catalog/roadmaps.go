package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed roadmaps.yaml
var roadmapsYAML []byte

type Week struct {
	Topic     string   `yaml:"topic"`
	Subtopics []string `yaml:"subtopics"`
}

// Step 路线中某一步的静态学习内容，用于生成测验
type Step struct {
	Number      int    `yaml:"step"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Duration    string `yaml:"duration"`
	Weeks       []Week `yaml:"weeks"`
}

func (s *Step) Topics() []string {
	topics := make([]string, 0, len(s.Weeks))
	for _, w := range s.Weeks {
		topics = append(topics, w.Topic)
	}
	return topics
}

func (s *Step) Subtopics() []string {
	var subtopics []string
	for _, w := range s.Weeks {
		subtopics = append(subtopics, w.Subtopics...)
	}
	return subtopics
}

type Roadmap struct {
	Career      string `yaml:"career"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

func (r *Roadmap) Step(number int) (*Step, bool) {
	for i := range r.Steps {
		if r.Steps[i].Number == number {
			return &r.Steps[i], true
		}
	}
	return nil, false
}

type Catalog struct {
	Roadmaps []Roadmap `yaml:"roadmaps"`
}

// LoadRoadmaps 加载内置路线内容
func LoadRoadmaps() (*Catalog, error) {
	return ParseRoadmaps(roadmapsYAML)
}

func ParseRoadmaps(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse roadmap catalog: %w", err)
	}
	for _, r := range c.Roadmaps {
		for i, s := range r.Steps {
			if s.Number != i+1 {
				return nil, fmt.Errorf("roadmap catalog: %s step at position %d numbered %d", r.Career, i, s.Number)
			}
		}
	}
	return &c, nil
}

func (c *Catalog) Roadmap(career string) (*Roadmap, bool) {
	for i := range c.Roadmaps {
		if c.Roadmaps[i].Career == career {
			return &c.Roadmaps[i], true
		}
	}
	return nil, false
}

// StepContent 查找职业路线中的步骤内容
func (c *Catalog) StepContent(career string, step int) (*Step, error) {
	r, ok := c.Roadmap(career)
	if !ok {
		return nil, fmt.Errorf("career %q not found in roadmap catalog", career)
	}
	s, ok := r.Step(step)
	if !ok {
		return nil, fmt.Errorf("step %d not found for career %q", step, career)
	}
	return s, nil
}
