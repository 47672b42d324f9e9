package index

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"legal_rag/internal/embedding"
)

const (
	payloadText = "text"
	upsertBatch = 100
)

// QdrantConfig подключение к Qdrant (gRPC порт)
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantIndex записи в коллекции Qdrant с косинусной метрикой
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	embedder   embedding.Embedder
}

// OpenQdrant подключается к Qdrant, ждёт готовности
// и создаёт коллекцию с размерностью embedder, если её нет.
func OpenQdrant(ctx context.Context, cfg QdrantConfig, collection string, embedder embedding.Embedder) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	q := &QdrantIndex{client: client, collection: collection, embedder: embedder}

	if err := retry(ctx, func() error { return q.Health(ctx) }); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if err := q.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return q, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.embedder.Dimensions()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      MetaSource,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create index for field %s: %w", MetaSource, err)
	}
	return nil
}

func (q *QdrantIndex) Add(ctx context.Context, entries []Entry) error {
	dims := q.embedder.Dimensions()
	for i, e := range entries {
		if len(e.Vector) != dims {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(e.Vector), dims)
		}
	}

	for i := 0; i < len(entries); i += upsertBatch {
		end := min(i+upsertBatch, len(entries))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for _, e := range entries[i:end] {
			id := e.ID
			if _, err := uuid.Parse(id); err != nil {
				// id в qdrant только uuid или число
				id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.ID)).String()
			}

			payload := make(map[string]any, len(e.Metadata)+1)
			for k, v := range e.Metadata {
				payload[k] = v
			}
			payload[payloadText] = e.Text

			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(id),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(payload),
			})
		}

		err := retry(ctx, func() error {
			_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
				CollectionName: q.collection,
				Wait:           qdrant.PtrOf(true),
				Points:         points,
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}

	vector, err := embedding.EmbedOne(ctx, q.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		meta := make(map[string]string, len(r.Payload))
		var text string
		for key, val := range r.Payload {
			if key == payloadText {
				text = val.GetStringValue()
				continue
			}
			meta[key] = val.GetStringValue()
		}
		hits = append(hits, Hit{
			ID:         r.Id.GetUuid(),
			Text:       text,
			Metadata:   meta,
			Similarity: r.Score,
		})
	}
	return hits, nil
}

func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return int(n), nil
}

func (q *QdrantIndex) Health(ctx context.Context) error {
	result, err := q.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

func (q *QdrantIndex) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}

// retry повторяет op с exponential backoff (500ms, максимум 10s между попытками, 30s всего)
func retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
