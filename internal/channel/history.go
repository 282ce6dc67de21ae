package channel

// history is a fixed-capacity ring of messages. Once full, each push evicts
// the oldest entry. A capacity of zero or less keeps nothing.
type history struct {
	buf   []Message
	start int
	size  int
}

func newHistory(capacity int) *history {
	if capacity < 0 {
		capacity = 0
	}
	return &history{buf: make([]Message, capacity)}
}

func (h *history) push(m Message) {
	if len(h.buf) == 0 {
		return
	}
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = m
		h.size++
		return
	}
	h.buf[h.start] = m
	h.start = (h.start + 1) % len(h.buf)
}

func (h *history) len() int {
	return h.size
}

// each visits the stored messages from oldest to newest.
func (h *history) each(fn func(Message)) {
	for i := 0; i < h.size; i++ {
		fn(h.buf[(h.start+i)%len(h.buf)])
	}
}

func (h *history) snapshot() []Message {
	out := make([]Message, 0, h.size)
	h.each(func(m Message) { out = append(out, m) })
	return out
}
