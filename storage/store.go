package storage

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"snowboardAnalyze/config"
	"snowboardAnalyze/core"
)

// TipStore abstracts the coaching-tip retrieval backend
type TipStore interface {
	Upsert(tips []core.CoachingTip) int
	Search(query string, topK int) []core.TipHit
}

var globalStore TipStore

// ---------------- Memory implementation (kept for fallback) ----------------

type MemoryTipStore struct {
	mu   sync.RWMutex
	docs []tipDocument
}

type tipDocument struct {
	Phase, Title, Text string
	Embed              map[string]float64 // term -> weight
}

// ---------------- Milvus implementation ----------------

type MilvusTipStore struct {
	mc   client.Client
	coll string
	dim  int
	oa   *openai.Client
}

// ---------------- PgVector implementation ----------------

type PgVectorTipStore struct {
	conn *pgx.Conn
	oa   *openai.Client
}

// InitTipStore selects the tip store backend from the STORE env var
// (memory/pgvector/milvus), falling back to the memory store whenever the
// configured backend cannot be reached.
func InitTipStore() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to load config (%v), using memory tip store\n", err)
		globalStore = &MemoryTipStore{}
		return nil
	}

	storeKind := strings.ToLower(strings.TrimSpace(os.Getenv("STORE")))
	if storeKind == "milvus" {
		if !cfg.HasValidAPI() {
			config.PrintConfigInstructions()
			fmt.Println("Warning: API configuration required for Milvus store, falling back to memory store")
			globalStore = &MemoryTipStore{}
			return nil
		}
		s, err := newMilvusTipStore()
		if err != nil {
			fmt.Printf("Warning: Failed to initialize Milvus store (%v), falling back to memory store\n", err)
			globalStore = &MemoryTipStore{}
			return nil
		}
		globalStore = s
		return nil
	}
	if storeKind == "pgvector" {
		if !cfg.HasValidAPI() {
			config.PrintConfigInstructions()
			fmt.Println("Warning: API configuration required for PgVector store, falling back to memory store")
			globalStore = &MemoryTipStore{}
			return nil
		}
		s, err := newPgVectorTipStore()
		if err != nil {
			fmt.Printf("Warning: Failed to initialize PgVector store (%v), falling back to memory store\n", err)
			globalStore = &MemoryTipStore{}
			return nil
		}
		globalStore = s
		return nil
	}
	// default to in-memory
	globalStore = &MemoryTipStore{}
	return nil
}

// GlobalStore returns the initialized tip store.
func GlobalStore() TipStore { return globalStore }

func (s *MemoryTipStore) Upsert(tips []core.CoachingTip) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tips {
		vec := embedText(strings.ToLower(t.Title + " " + t.Text))
		s.docs = append(s.docs, tipDocument{Phase: t.Phase, Title: t.Title, Text: t.Text, Embed: vec})
	}
	return len(tips)
}

func (s *MemoryTipStore) Search(query string, topK int) []core.TipHit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qv := embedText(strings.ToLower(query))
	type scored struct {
		i     int
		score float64
	}
	scores := make([]scored, 0, len(s.docs))
	for i, d := range s.docs {
		scores = append(scores, scored{i, cosine(qv, d.Embed)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK <= 0 || topK > len(scores) {
		topK = min(len(scores), 5)
	}
	hits := make([]core.TipHit, 0, topK)
	for _, sc := range scores[:topK] {
		d := s.docs[sc.i]
		hits = append(hits, core.TipHit{Score: sc.score, Phase: d.Phase, Title: d.Title, Text: d.Text})
	}
	return hits
}

func newMilvusTipStore() (*MilvusTipStore, error) {
	addr := os.Getenv("MILVUS_ADDR")
	if addr == "" {
		addr = "localhost:19530"
	}
	username := os.Getenv("MILVUS_USERNAME")
	password := os.Getenv("MILVUS_PASSWORD")
	apiKey := os.Getenv("MILVUS_API_KEY") // For Zilliz Cloud
	coll := os.Getenv("MILVUS_COLLECTION")
	if coll == "" {
		coll = "coaching_tips"
	}

	mc, err := client.NewClient(context.Background(), client.Config{Address: addr, Username: username, Password: password, APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	s := &MilvusTipStore{mc: mc, coll: coll, dim: 1536}

	if err := s.ensureSchemaAndIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MilvusTipStore) ensureSchemaAndIndex() error {
	ctx := context.Background()
	has, err := s.mc.HasCollection(ctx, s.coll)
	if err != nil {
		return err
	}
	if !has {
		schema := entity.NewSchema()
		schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("phase").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64))
		schema.WithField(entity.NewField().WithName("title").WithDataType(entity.FieldTypeVarChar).WithMaxLength(512))
		schema.WithField(entity.NewField().WithName("text").WithDataType(entity.FieldTypeVarChar).WithMaxLength(4096))
		schema.WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.mc.CreateCollection(ctx, schema, int32(2)); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return fmt.Errorf("new hnsw index: %w", err)
	}
	if err := s.mc.CreateIndex(ctx, s.coll, "vector", idx, false, client.WithIndexName("idx_vector")); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.mc.LoadCollection(ctx, s.coll, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

func (s *MilvusTipStore) Upsert(tips []core.CoachingTip) int {
	if len(tips) == 0 {
		return 0
	}
	phases := make([]string, 0, len(tips))
	titles := make([]string, 0, len(tips))
	texts := make([]string, 0, len(tips))
	vectors := make([][]float32, 0, len(tips))

	for _, t := range tips {
		v, err := embed(s.openaiClient(), strings.ToLower(t.Title+" "+t.Text))
		if err != nil {
			continue
		}
		phases = append(phases, t.Phase)
		titles = append(titles, t.Title)
		texts = append(texts, t.Text)
		vectors = append(vectors, v)
	}
	if len(vectors) == 0 {
		return 0
	}

	ctx := context.Background()
	_, err := s.mc.Insert(ctx, s.coll, "",
		entity.NewColumnVarChar("phase", phases),
		entity.NewColumnVarChar("title", titles),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
	)
	if err != nil {
		return 0
	}
	return len(vectors)
}

func (s *MilvusTipStore) Search(query string, topK int) []core.TipHit {
	v, err := embed(s.openaiClient(), strings.ToLower(query))
	if err != nil {
		return nil
	}
	if topK <= 0 {
		topK = 5
	}
	ctx := context.Background()
	sp, _ := entity.NewIndexHNSWSearchParam(74)
	res, err := s.mc.Search(ctx, s.coll, []string{}, "", []string{"phase", "title", "text"}, []entity.Vector{entity.FloatVector(v)}, "vector", entity.COSINE, topK, sp)
	if err != nil {
		return nil
	}
	var hits []core.TipHit
	for _, r := range res {
		cols := map[string]entity.Column{}
		for _, c := range r.Fields {
			cols[c.Name()] = c
		}
		for i := 0; i < r.ResultCount; i++ {
			var phase, title, text string
			if c, ok := cols["phase"].(*entity.ColumnVarChar); ok {
				data := c.Data()
				if i < len(data) {
					phase = data[i]
				}
			}
			if c, ok := cols["title"].(*entity.ColumnVarChar); ok {
				data := c.Data()
				if i < len(data) {
					title = data[i]
				}
			}
			if c, ok := cols["text"].(*entity.ColumnVarChar); ok {
				data := c.Data()
				if i < len(data) {
					text = data[i]
				}
			}
			hits = append(hits, core.TipHit{Score: float64(r.Scores[i]), Phase: phase, Title: title, Text: text})
		}
	}
	return hits
}

func (s *MilvusTipStore) openaiClient() *openai.Client {
	if s.oa == nil {
		s.oa = newOpenAIClient()
	}
	return s.oa
}

func newPgVectorTipStore() (*PgVectorTipStore, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = cfg.PostgresURL
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PgVectorTipStore{conn: conn}
	if err := s.ensureTable(); err != nil {
		conn.Close(ctx)
		return nil, err
	}

	return s, nil
}

func (s *PgVectorTipStore) ensureTable() error {
	ctx := context.Background()

	if _, err := s.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	tipsQuery := `
		CREATE TABLE IF NOT EXISTS coaching_tips (
			id SERIAL PRIMARY KEY,
			phase VARCHAR(64) NOT NULL DEFAULT '',
			title VARCHAR(512) NOT NULL,
			text TEXT NOT NULL,
			embedding vector(1536),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(phase, title)
		);
	`
	if _, err := s.conn.Exec(ctx, tipsQuery); err != nil {
		return fmt.Errorf("failed to create coaching_tips table: %w", err)
	}

	if _, err := s.conn.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_coaching_tips_phase ON coaching_tips(phase);"); err != nil {
		fmt.Printf("Warning: failed to create phase index: %v\n", err)
	}

	// ivfflat needs data to choose lists sensibly; build it lazily once tips exist
	var count int
	if err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM coaching_tips WHERE embedding IS NOT NULL").Scan(&count); err == nil && count > 0 {
		lists := 10
		if count > 1000 {
			lists = 100
		}
		if _, err := s.conn.Exec(ctx, "DROP INDEX IF EXISTS idx_coaching_tips_embedding;"); err != nil {
			fmt.Printf("Warning: failed to drop existing vector index: %v\n", err)
		}
		indexQuery := fmt.Sprintf(`
			CREATE INDEX idx_coaching_tips_embedding
			ON coaching_tips
			USING ivfflat (embedding vector_cosine_ops)
			WITH (lists = %d);
		`, lists)
		if _, err := s.conn.Exec(ctx, indexQuery); err != nil {
			fmt.Printf("Warning: failed to create vector index: %v\n", err)
		}
	}

	return nil
}

func (s *PgVectorTipStore) Upsert(tips []core.CoachingTip) int {
	ctx := context.Background()
	successCount := 0

	for _, t := range tips {
		embedding, err := embed(s.openaiClient(), strings.ToLower(t.Title+" "+t.Text))
		if err != nil {
			continue // Skip this tip if embedding fails
		}
		vec := pgvector.NewVector(embedding)

		_, err = s.conn.Exec(ctx, `
			INSERT INTO coaching_tips (phase, title, text, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (phase, title)
			DO UPDATE SET
				text = EXCLUDED.text,
				embedding = EXCLUDED.embedding
		`, t.Phase, t.Title, t.Text, vec)
		if err != nil {
			continue
		}
		successCount++
	}

	return successCount
}

func (s *PgVectorTipStore) Search(query string, topK int) []core.TipHit {
	if topK <= 0 {
		topK = 5
	}

	queryEmbedding, err := embed(s.openaiClient(), strings.ToLower(query))
	if err != nil {
		return nil
	}
	vec := pgvector.NewVector(queryEmbedding)
	ctx := context.Background()

	rows, err := s.conn.Query(ctx, `
		SELECT phase, title, text,
			   1 - (embedding <=> $1) as similarity
		FROM coaching_tips
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, vec, topK)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var hits []core.TipHit
	for rows.Next() {
		var phase, title, text string
		var similarity float64
		if err := rows.Scan(&phase, &title, &text, &similarity); err != nil {
			continue
		}
		hits = append(hits, core.TipHit{Score: similarity, Phase: phase, Title: title, Text: text})
	}

	return hits
}

func (s *PgVectorTipStore) openaiClient() *openai.Client {
	if s.oa == nil {
		s.oa = newOpenAIClient()
	}
	return s.oa
}

// ---------------- shared helpers ----------------

func embed(cli *openai.Client, text string) ([]float32, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	ctx := context.Background()
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(cfg.EmbeddingModel),
		Input: []string{text},
	}
	resp, err := cli.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding API failed: %v", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

func newOpenAIClient() *openai.Client {
	cfg, err := config.LoadConfig()
	if err != nil {
		return openai.NewClient(os.Getenv("API_KEY"))
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func embedText(text string) map[string]float64 {
	toks := tokenize(text)
	m := map[string]float64{}
	for _, t := range toks {
		m[t] += 1
	}
	// L2 normalize
	var sum float64
	for _, v := range m {
		sum += v * v
	}
	if sum == 0 {
		return m
	}
	norm := math.Sqrt(sum)
	for k, v := range m {
		m[k] = v / norm
	}
	return m
}

func cosine(a, b map[string]float64) float64 {
	var dot float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	return dot
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
