// storage-init provisions the users table and the user events queue
// kairo-api expects. Existing resources are left untouched.
package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const queueAlreadyExists = "QueueAlreadyExists"

type tableCreator interface {
	CreateTable(ctx context.Context, name string) error
}

type queueCreator interface {
	CreateQueue(ctx context.Context, name string) error
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("load .env: %v", err)
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}
	table := os.Getenv("USERS_TABLE")
	if table == "" {
		log.Fatal("missing USERS_TABLE")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tables, err := newTableService(connStr)
	if err != nil {
		log.Fatalf("table service: %v", err)
	}
	if err := createTables(ctx, tables, []string{table}); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	if err := createQueues(ctx, queueService{connStr: connStr}, []string{os.Getenv("USER_EVENTS_QUEUE")}); err != nil {
		log.Fatalf("create queues: %v", err)
	}

	log.Info("storage init complete")
}

func createTables(ctx context.Context, svc tableCreator, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		err := svc.CreateTable(ctx, name)
		var respErr *azcore.ResponseError
		switch {
		case err == nil:
			log.WithField("table", name).Info("table created")
		case errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists):
			log.WithField("table", name).Debug("table exists")
		default:
			return err
		}
	}
	return nil
}

func createQueues(ctx context.Context, svc queueCreator, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		err := svc.CreateQueue(ctx, name)
		var respErr *azcore.ResponseError
		switch {
		case err == nil:
			log.WithField("queue", name).Info("queue created")
		case errors.As(err, &respErr) && respErr.ErrorCode == queueAlreadyExists:
			log.WithField("queue", name).Debug("queue exists")
		default:
			return err
		}
	}
	return nil
}

type tableService struct{ svc *aztables.ServiceClient }

func newTableService(connStr string) (tableService, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	return tableService{svc: svc}, err
}

func (t tableService) CreateTable(ctx context.Context, name string) error {
	_, err := t.svc.NewClient(name).CreateTable(ctx, nil)
	return err
}

type queueService struct{ connStr string }

func (q queueService) CreateQueue(ctx context.Context, name string) error {
	c, err := azqueue.NewQueueClientFromConnectionString(q.connStr, name, nil)
	if err != nil {
		return err
	}
	_, err = c.Create(ctx, nil)
	return err
}
