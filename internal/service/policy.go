package service

import (
	"career_path_backend/internal/config"
	"sync/atomic"
)

// PolicyReader 读取当前生效的阈值
type PolicyReader interface {
	Get() config.AssessmentPolicy
}

// PolicyStore 持有当前生效的测评阈值，配置热更新时整体替换
type PolicyStore struct {
	v atomic.Pointer[config.AssessmentPolicy]
}

func NewPolicyStore(p config.AssessmentPolicy) *PolicyStore {
	s := &PolicyStore{}
	s.Set(p)
	return s
}

func (s *PolicyStore) Get() config.AssessmentPolicy {
	return *s.v.Load()
}

func (s *PolicyStore) Set(p config.AssessmentPolicy) {
	s.v.Store(&p)
}
