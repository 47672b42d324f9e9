package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	// DefaultLocalDimensions размерность локального embedder по умолчанию
	DefaultLocalDimensions = 384

	localModel = "local-hash"
)

// LocalEmbedder детерминированный офлайн embedder. Слова в нижнем регистре
// хэшируются в фиксированное число корзин со знаком, вектор нормируется по L2,
// поэтому тексты с общей лексикой близки по косинусу.
type LocalEmbedder struct {
	dims int
}

func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = DefaultLocalDimensions
	}
	return &LocalEmbedder{dims: dims}
}

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *LocalEmbedder) Dimensions() int { return e.dims }

func (e *LocalEmbedder) Model() string { return localModel }

func (e *LocalEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dims))
		if sum&(1<<63) != 0 {
			v[idx]--
		} else {
			v[idx]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		// нет слов: нулевой вектор не нормировать
		v[0] = 1
		return v
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v
}
