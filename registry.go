package finchat

import "sync"

// AgentRegistry caches agents keyed by configuration identity, creating one
// on first use. It replaces implicit process-global instance state with an
// explicit object the caller owns; a server shares one registry across
// request handlers.
type AgentRegistry struct {
	mu     sync.Mutex
	agents map[string]*Agent
}

// NewAgentRegistry creates an empty registry.
func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{agents: make(map[string]*Agent)}
}

// GetOrCreate returns the agent registered under key, constructing it from
// cfg on a miss. Two callers racing on the same key get the same agent.
func (r *AgentRegistry) GetOrCreate(key string, cfg Config) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if agent, ok := r.agents[key]; ok {
		return agent, nil
	}

	agent, err := New(cfg)
	if err != nil {
		return nil, err
	}
	r.agents[key] = agent
	return agent, nil
}

// Get returns the agent registered under key, if any.
func (r *AgentRegistry) Get(key string) (*Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[key]
	return agent, ok
}

// Remove drops the agent registered under key.
func (r *AgentRegistry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, key)
}

// Len returns the number of registered agents.
func (r *AgentRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}
