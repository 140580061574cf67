package service

import (
	"career_path_backend/internal/util"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// jsonSchema 命名的 JSON Schema，编译结果按名称缓存
type jsonSchema struct {
	Name       string
	Definition map[string]any
}

var schemaCache sync.Map // map[string]*jsonschema.Schema

func (s *jsonSchema) compiled() (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(s.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// 编译器需要 json.Unmarshal 得到的通用值
	defBytes, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var def any
	if err := json.Unmarshal(defBytes, &def); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", s.Name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(s.Name, compiled)
	return compiled, nil
}

// validate 校验 JSON 文本，失败返回 util.ErrAIInvalidResponse
func (s *jsonSchema) validate(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", util.ErrAIInvalidResponse, err)
	}

	compiled, err := s.compiled()
	if err != nil {
		return fmt.Errorf("schema %q: %w", s.Name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %v", util.ErrAIInvalidResponse, err)
	}
	return nil
}

var (
	codeFencePattern  = regexp.MustCompile("```(?:json|JSON)?")
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// extractJSONObject 去掉代码块标记，提取补全文本中的 JSON 对象
func extractJSONObject(raw string) ([]byte, error) {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))
	if json.Valid([]byte(cleaned)) && strings.HasPrefix(cleaned, "{") {
		return []byte(cleaned), nil
	}

	match := jsonObjectPattern.FindString(cleaned)
	if match == "" || !json.Valid([]byte(match)) {
		return nil, fmt.Errorf("%w: no JSON object in completion", util.ErrAIInvalidResponse)
	}
	return []byte(match), nil
}
