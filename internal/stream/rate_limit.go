package stream

import "sync"

// maxStreams caps open streams across all clients.
const maxStreams = 1000

// connLimiter counts open event streams per client address and in total.
type connLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	total    int
	maxPerIP int
}

func newConnLimiter(maxPerIP int) *connLimiter {
	return &connLimiter{perIP: make(map[string]int), maxPerIP: maxPerIP}
}

// acquire reserves a stream slot for ip. The returned release frees it and
// may be called more than once.
func (l *connLimiter) acquire(ip string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= maxStreams || l.perIP[ip] >= l.maxPerIP {
		return nil, false
	}
	l.perIP[ip]++
	l.total++

	var once sync.Once
	return func() { once.Do(func() { l.release(ip) }) }, true
}

func (l *connLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total--
	if l.perIP[ip]--; l.perIP[ip] <= 0 {
		delete(l.perIP, ip)
	}
}

// open returns the number of streams held by ip.
func (l *connLimiter) open(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}

// active returns the number of streams across all clients.
func (l *connLimiter) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
