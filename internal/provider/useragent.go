package provider

import (
	"math/rand/v2"
	"sync/atomic"
)

// Browser-like user agents for feed requests. Some finance feeds reject the
// default Go client string.
var feedUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:130.0) Gecko/20100101 Firefox/130.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36 Edg/129.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Feedly/1.0 (+http://www.feedly.com/fetcher.html; like FeedFetcher-Google)",
}

// agentRotator hands out user agents round-robin, with an occasional random
// pick so consecutive processes do not start in lockstep.
type agentRotator struct {
	agents []string
	next   atomic.Uint64
}

func (r *agentRotator) Next() string {
	if rand.IntN(5) == 0 {
		return r.agents[rand.IntN(len(r.agents))]
	}
	i := r.next.Add(1)
	return r.agents[int(i%uint64(len(r.agents)))]
}

var userAgents = &agentRotator{agents: feedUserAgents}
