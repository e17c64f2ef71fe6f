package ir

// TokenArena stores raw tokens grouped by source stream. Streams grow
// monotonically; a token's (StreamID, Index) pair is stable for the session.
type TokenArena struct {
	streams [][]Token
}

// NewTokenArena creates an empty arena.
func NewTokenArena() *TokenArena {
	return &TokenArena{}
}

// NewStream allocates a fresh, empty stream and returns its id.
// Meta-execution fragments get their own stream so their tokens never
// disturb indices of the stream that triggered them.
func (a *TokenArena) NewStream() uint32 {
	id := uint32(len(a.streams))
	a.streams = append(a.streams, nil)
	return id
}

// Append adds tok to the given stream, stamping StreamID and Index, and
// returns the assigned index.
func (a *TokenArena) Append(stream uint32, tok Token) uint32 {
	idx := uint32(len(a.streams[stream]))
	tok.StreamID = stream
	tok.Index = idx
	a.streams[stream] = append(a.streams[stream], tok)
	return idx
}

// Token returns the token at (stream, index), or the canonical EOF token for
// out-of-range lookups.
func (a *TokenArena) Token(stream, index uint32) Token {
	if int(stream) >= len(a.streams) || int(index) >= len(a.streams[stream]) {
		return eofToken(a, stream)
	}
	return a.streams[stream][index]
}

// StreamLen reports the number of tokens in a stream.
func (a *TokenArena) StreamLen(stream uint32) int {
	if int(stream) >= len(a.streams) {
		return 0
	}
	return len(a.streams[stream])
}

// StreamTokens exposes a stream's backing slice. Callers must treat it as
// read-only.
func (a *TokenArena) StreamTokens(stream uint32) []Token {
	if int(stream) >= len(a.streams) {
		return nil
	}
	return a.streams[stream]
}

// StreamCount reports the number of allocated streams.
func (a *TokenArena) StreamCount() int { return len(a.streams) }

func eofToken(a *TokenArena, stream uint32) Token {
	var idx uint32
	if int(stream) < len(a.streams) {
		idx = uint32(len(a.streams[stream]))
	}
	return Token{Kind: TokenEOF, Text: InvalidStrIdx, StreamID: stream, Index: idx}
}

// TokenStream is a cursor over one stream in the arena. Out-of-range reads
// yield the canonical EOF token rather than failing.
type TokenStream struct {
	arena  *TokenArena
	stream uint32
	pos    int
}

// Stream returns a cursor positioned at the start of the given stream.
func (a *TokenArena) Stream(id uint32) *TokenStream {
	return &TokenStream{arena: a, stream: id}
}

// Current returns the token at the cursor without advancing.
func (s *TokenStream) Current() Token { return s.Peek(0) }

// Peek returns the token n positions ahead of the cursor.
func (s *TokenStream) Peek(n int) Token {
	at := s.pos + n
	if at < 0 || at >= s.arena.StreamLen(s.stream) {
		return eofToken(s.arena, s.stream)
	}
	return s.arena.streams[s.stream][at]
}

// Advance returns the current token and moves the cursor forward.
func (s *TokenStream) Advance() Token {
	tok := s.Current()
	if s.pos < s.arena.StreamLen(s.stream) {
		s.pos++
	}
	return tok
}

// SetPosition moves the cursor to an absolute index.
func (s *TokenStream) SetPosition(pos int) { s.pos = pos }

// Position reports the cursor's absolute index.
func (s *TokenStream) Position() int { return s.pos }

// Size reports the stream length.
func (s *TokenStream) Size() int { return s.arena.StreamLen(s.stream) }

// StreamID reports which stream the cursor walks.
func (s *TokenStream) StreamID() uint32 { return s.stream }
