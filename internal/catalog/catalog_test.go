package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules()
	require.NoError(t, err)

	assert.Equal(t, 10, rules.QuestionCount())
	assert.Len(t, rules.Careers, 5)

	career, ok := rules.InitialCareer("Analyzing data to find patterns")
	require.True(t, ok)
	assert.Equal(t, "Data Scientist", career)

	career, ok = rules.MappedCareer(5, "Media studies")
	require.True(t, ok)
	assert.Equal(t, "Web Developer", career)

	inc, ok := rules.Increment("Data Scientist", 2)
	require.True(t, ok)
	assert.Equal(t, 15, inc)

	_, ok = rules.Increment("Web Developer", 10)
	assert.False(t, ok, "web developer has no increment for the last question")
}

func TestParseRules_RejectsUnknownCareer(t *testing.T) {
	_, err := ParseRules([]byte(`
questions:
  - id: 1
    text: Start
    options: [A, B]
  - id: 2
    text: Next
    options: [A, B]
    career_mapping:
      A: Astronaut
careers:
  - name: Pilot
    initial_answer: A
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown career")
}

func TestParseRules_RejectsGapInQuestionIDs(t *testing.T) {
	_, err := ParseRules([]byte(`
questions:
  - id: 1
    text: Start
    options: [A]
  - id: 3
    text: Skipped
    options: [A]
careers: []
`))
	require.Error(t, err)
}

func TestLoadRoadmaps(t *testing.T) {
	c, err := LoadRoadmaps()
	require.NoError(t, err)

	rules, err := LoadRules()
	require.NoError(t, err)
	for _, career := range rules.Careers {
		r, ok := c.Roadmap(career.Name)
		require.True(t, ok, "missing roadmap for %s", career.Name)
		assert.NotEmpty(t, r.Steps)
	}

	step, err := c.StepContent("Data Scientist", 1)
	require.NoError(t, err)
	assert.Equal(t, "Python for Data Analysis", step.Title)
	assert.Equal(t, []string{"Python basics", "NumPy and pandas"}, step.Topics())
	assert.Contains(t, step.Subtopics(), "DataFrames")

	_, err = c.StepContent("Data Scientist", 99)
	assert.Error(t, err)
	_, err = c.StepContent("Astronaut", 1)
	assert.Error(t, err)
}
