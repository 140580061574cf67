package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed career_rules.yaml
var careerRulesYAML []byte

// Question 职业发现问卷中的一道题
type Question struct {
	ID            int               `yaml:"id" json:"questionId"`
	Text          string            `yaml:"text" json:"questionText"`
	Options       []string          `yaml:"options" json:"options"`
	CareerMapping map[string]string `yaml:"career_mapping" json:"-"`
}

// Career 每个职业的起始答案、逐题增量和典型作答模式
type Career struct {
	Name                 string         `yaml:"name"`
	InitialAnswer        string         `yaml:"initial_answer"`
	ConfidenceIncrements map[int]int    `yaml:"confidence_increments"`
	AnswerPattern        map[int]string `yaml:"answer_pattern"`
}

// Rules 评分规则表，加载后只读
type Rules struct {
	Questions []Question `yaml:"questions"`
	Careers   []Career   `yaml:"careers"`

	questionByID map[int]*Question
	careerByName map[string]*Career
}

// LoadRules 加载内置规则表
func LoadRules() (*Rules, error) {
	return ParseRules(careerRulesYAML)
}

func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse career rules: %w", err)
	}
	r.index()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) index() {
	r.questionByID = make(map[int]*Question, len(r.Questions))
	for i := range r.Questions {
		r.questionByID[r.Questions[i].ID] = &r.Questions[i]
	}
	r.careerByName = make(map[string]*Career, len(r.Careers))
	for i := range r.Careers {
		r.careerByName[r.Careers[i].Name] = &r.Careers[i]
	}
}

// Validate 检查题号连续、映射目标存在、选项合法
func (r *Rules) Validate() error {
	if r.questionByID == nil {
		r.index()
	}
	if len(r.Questions) == 0 {
		return fmt.Errorf("career rules: no questions")
	}
	for i, q := range r.Questions {
		if q.ID != i+1 {
			return fmt.Errorf("career rules: question at position %d has id %d, want %d", i, q.ID, i+1)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("career rules: question %d has no options", q.ID)
		}
		for option, career := range q.CareerMapping {
			if !q.HasOption(option) {
				return fmt.Errorf("career rules: question %d maps unknown option %q", q.ID, option)
			}
			if _, ok := r.careerByName[career]; !ok {
				return fmt.Errorf("career rules: question %d maps to unknown career %q", q.ID, career)
			}
		}
	}

	first := r.questionByID[1]
	for _, c := range r.Careers {
		if c.Name == "" {
			return fmt.Errorf("career rules: career with empty name")
		}
		if c.InitialAnswer != "" && !first.HasOption(c.InitialAnswer) {
			return fmt.Errorf("career rules: %s initial answer %q is not an option of question 1", c.Name, c.InitialAnswer)
		}
		for qid, option := range c.AnswerPattern {
			q, ok := r.questionByID[qid]
			if !ok {
				return fmt.Errorf("career rules: %s answer pattern references unknown question %d", c.Name, qid)
			}
			if !q.HasOption(option) {
				return fmt.Errorf("career rules: %s answer pattern uses unknown option %q for question %d", c.Name, option, qid)
			}
		}
	}
	return nil
}

func (q *Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

func (r *Rules) Question(id int) (*Question, bool) {
	q, ok := r.questionByID[id]
	return q, ok
}

func (r *Rules) Career(name string) (*Career, bool) {
	c, ok := r.careerByName[name]
	return c, ok
}

func (r *Rules) QuestionCount() int {
	return len(r.Questions)
}

// InitialCareer 根据开场题的答案确定起始职业
func (r *Rules) InitialCareer(option string) (string, bool) {
	for _, c := range r.Careers {
		if c.InitialAnswer != "" && c.InitialAnswer == option {
			return c.Name, true
		}
	}
	return "", false
}

// MappedCareer 后续题目中某选项指向的职业
func (r *Rules) MappedCareer(questionID int, option string) (string, bool) {
	q, ok := r.questionByID[questionID]
	if !ok {
		return "", false
	}
	career, ok := q.CareerMapping[option]
	return career, ok
}

// Increment 职业在某题上的置信度增量，未定义时返回 false
func (r *Rules) Increment(career string, questionID int) (int, bool) {
	c, ok := r.careerByName[career]
	if !ok {
		return 0, false
	}
	inc, ok := c.ConfidenceIncrements[questionID]
	return inc, ok
}
