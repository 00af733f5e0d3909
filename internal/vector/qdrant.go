package vector

import (
	"context"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore backs document retrieval with a qdrant collection per
// document corpus. Upserts wait for the write to be applied so a
// freshly indexed corpus is immediately queryable.
type QdrantStore struct {
	client *qdrant.Client
}

func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, err
	}

	return &QdrantStore{client: c}, nil
}

func (s QdrantStore) CollectionExists(ctx context.Context, collectionName string) (bool, error) {
	return s.client.CollectionExists(ctx, collectionName)
}

func (s QdrantStore) CreateCollection(ctx context.Context, collection Collection) error {
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(collection.Dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (s QdrantStore) Upsert(ctx context.Context, collectionName string, points []*Point) error {
	upsertPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		upsertPoints = append(upsertPoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: qdrant.NewValueMap(point.Payload),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Wait:           &wait,
		Points:         upsertPoints,
	})

	return err
}

func (s QdrantStore) Query(ctx context.Context, params *QueryParams) ([]*ScoredPoint, error) {
	queryPoints := &qdrant.QueryPoints{
		CollectionName: params.collection,
		Query:          qdrant.NewQuery(params.query...),
		WithPayload:    qdrant.NewWithPayload(params.withPayload),
	}

	if params.limit > 0 {
		limit := uint64(params.limit)
		queryPoints.Limit = &limit
	}

	if len(params.filters) > 0 {
		conds := make([]*qdrant.Condition, 0, len(params.filters))
		for _, filter := range params.filters {
			conds = append(conds, qdrant.NewMatch(filter.Key, filter.Value))
		}

		queryPoints.Filter = &qdrant.Filter{
			Must: conds,
		}
	}

	res, err := s.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, err
	}

	scoredPoints := make([]*ScoredPoint, 0, len(res))
	for _, sp := range res {
		scoredPoints = append(scoredPoints, &ScoredPoint{
			ID:      sp.Id.GetUuid(),
			Score:   sp.Score,
			Payload: documentPayload(sp.Payload),
		})
	}

	return scoredPoints, nil
}

// documentPayload extracts the document fields stored alongside a
// vector. Points are written with string payloads only (title, text,
// source), so anything else in the collection is dropped with a warning.
func documentPayload(values map[string]*qdrant.Value) map[string]string {
	payload := make(map[string]string, len(values))
	for k, v := range values {
		sv, ok := v.GetKind().(*qdrant.Value_StringValue)
		if !ok {
			slog.Warn("skipping non-string payload field", "key", k)
			continue
		}
		payload[k] = sv.StringValue
	}
	return payload
}

func (s QdrantStore) Close() error {
	return s.client.Close()
}
