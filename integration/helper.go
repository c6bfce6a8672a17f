package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/iyhunko/catalog-importer/internal/exchange"
	reposql "github.com/iyhunko/catalog-importer/internal/repository/sql"
	"github.com/iyhunko/catalog-importer/internal/service"
	sqspkg "github.com/iyhunko/catalog-importer/internal/sqs"
)

const testTable = "bigbasket"

// TestDB points at a SQLite file that lives for the duration of one test.
type TestDB struct {
	Path string
	Open reposql.Opener
}

// SetupTestDB creates an initialized catalog table in a temporary SQLite file.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.db")
	open := reposql.SQLiteOpener(path)
	if err := reposql.NewTableManager(open, testTable).Initialize(context.Background()); err != nil {
		t.Fatalf("Could not initialize table: %s", err)
	}
	return &TestDB{Path: path, Open: open}
}

// Repositories returns repositories bound to the test table.
func (tdb *TestDB) Repositories() service.Repositories {
	return service.Repositories{
		Tables:   reposql.NewTableManager(tdb.Open, testTable),
		Products: reposql.NewProductRepository(tdb.Open, testTable),
		Reports:  reposql.NewReportRepository(tdb.Open, testTable),
	}
}

// WriteCatalog writes a CSV document to a temporary file and returns its path.
func WriteCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Could not write catalog: %s", err)
	}
	return path
}

// RateServer serves body for every quotation request.
func RateServer(t *testing.T, status int, body string) *exchange.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return exchange.NewClientWithHTTP(server.URL+"/v1/cotizaciones/", server.Client())
}

// MemoryQueue is an in-process stand-in for an SQS queue.
type MemoryQueue struct {
	mu       sync.Mutex
	nextID   int
	messages map[string]string
	order    []string
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{messages: map[string]string{}}
}

func (q *MemoryQueue) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	handle := strconv.Itoa(q.nextID)
	q.messages[handle] = aws.ToString(params.MessageBody)
	q.order = append(q.order, handle)
	return &sqs.SendMessageOutput{MessageId: aws.String(handle)}, nil
}

func (q *MemoryQueue) ReceiveMessage(_ context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []types.Message
	for _, handle := range q.order {
		if len(out) == int(params.MaxNumberOfMessages) {
			break
		}
		out = append(out, types.Message{
			MessageId:     aws.String(handle),
			ReceiptHandle: aws.String(handle),
			Body:          aws.String(q.messages[handle]),
		})
	}
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (q *MemoryQueue) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	handle := aws.ToString(params.ReceiptHandle)
	delete(q.messages, handle)
	for i, h := range q.order {
		if h == handle {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return &sqs.DeleteMessageOutput{}, nil
}

// Len returns the number of messages still on the queue.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

var (
	_ sqspkg.PublisherAPI = (*MemoryQueue)(nil)
	_ sqspkg.ConsumerAPI  = (*MemoryQueue)(nil)
)
