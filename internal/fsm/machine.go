package fsm

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sshcollectorpro/consoleprov/pkg/logger"
)

type edge[S, I comparable] struct {
	from  S
	input I
}

// Machine 有限状态机。未定义的 (状态, 输入) 不改变状态，记录警告并返回 false。
type Machine[S, I comparable] struct {
	mu          sync.Mutex
	name        string
	state       S
	states      map[S]bool
	transitions map[edge[S, I]]S
}

// New 创建状态机，initial 自动登记为合法状态
func New[S, I comparable](name string, initial S) *Machine[S, I] {
	m := &Machine[S, I]{
		name:        name,
		state:       initial,
		states:      map[S]bool{initial: true},
		transitions: make(map[edge[S, I]]S),
	}
	return m
}

// AddState 登记状态
func (m *Machine[S, I]) AddState(states ...S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range states {
		m.states[s] = true
	}
}

// AddTransition 定义迁移；from/to 未登记时一并登记
func (m *Machine[S, I]) AddTransition(from S, input I, to S) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[from] = true
	m.states[to] = true
	m.transitions[edge[S, I]{from: from, input: input}] = to
}

// Input 处理一个输入，迁移成功返回 true
func (m *Machine[S, I]) Input(in I) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	to, ok := m.transitions[edge[S, I]{from: m.state, input: in}]
	if !ok {
		m.logEntry().Warnf("no transition from %v on input %v", m.state, in)
		return false
	}
	m.logEntry().Debugf("%v --%v--> %v", m.state, in, to)
	m.state = to
	return true
}

// State 当前状态
func (m *Machine[S, I]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Known 状态是否已登记
func (m *Machine[S, I]) Known(s S) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[s]
}

func (m *Machine[S, I]) logEntry() *logrus.Entry {
	return logger.WithField("fsm", m.name)
}

func (m *Machine[S, I]) String() string {
	return fmt.Sprintf("%s(%v)", m.name, m.State())
}
