package storage

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"kairo/kairo-api/domain"
)

const (
	userPartition  = "user"
	emailPartition = "email"
)

// entityClient is the part of an Azure table the store needs.
type entityClient interface {
	AddEntity(ctx context.Context, payload []byte) error
	GetEntity(ctx context.Context, pk, rk string) ([]byte, error)
	UpsertEntity(ctx context.Context, payload []byte) error
	DeleteEntity(ctx context.Context, pk, rk string) error
	ListEntities(ctx context.Context, filter string) ([][]byte, error)
}

// Entity carries the table keys of a row.
type Entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type userEntity struct {
	Entity
	Username     string `json:"Username"`
	Email        string `json:"Email"`
	PasswordHash string `json:"PasswordHash"`
	CreatedAt    string `json:"CreatedAt"`
	UpdatedAt    string `json:"UpdatedAt,omitempty"`
}

// emailEntity indexes a user by email so uniqueness is enforced by the
// table's own key constraint.
type emailEntity struct {
	Entity
	UserID string `json:"UserID"`
}

// Table stores users in one Azure table: accounts under the "user"
// partition keyed by id and an email index under "email".
type Table struct {
	client entityClient
	now    func() time.Time
}

// NewTable connects to the named table using a storage connection string.
func NewTable(connStr, table string) (*Table, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return newTable(azureTable{c: svc.NewClient(table)}), nil
}

func newTable(c entityClient) *Table { return &Table{client: c, now: time.Now} }

func (t *Table) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u = prepareNew(u, t.now())
	if err := t.reserveEmail(ctx, u.Email, u.ID); err != nil {
		return domain.User{}, err
	}
	payload, err := encodeUser(u)
	if err == nil {
		err = t.client.AddEntity(ctx, payload)
	}
	if err != nil {
		_ = t.client.DeleteEntity(ctx, emailPartition, u.Email)
		return domain.User{}, err
	}
	return u, nil
}

func (t *Table) Get(ctx context.Context, id string) (domain.User, error) {
	data, err := t.client.GetEntity(ctx, userPartition, id)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return decodeUser(data)
}

func (t *Table) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	data, err := t.client.GetEntity(ctx, emailPartition, domain.NormalizeEmail(email))
	if err != nil {
		return domain.User{}, notFound(err)
	}
	var idx emailEntity
	if err := sonic.Unmarshal(data, &idx); err != nil {
		return domain.User{}, err
	}
	return t.Get(ctx, idx.UserID)
}

func (t *Table) List(ctx context.Context) ([]domain.User, error) {
	rows, err := t.client.ListEntities(ctx, "PartitionKey eq '"+userPartition+"'")
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := decodeUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sortUsers(users)
	return users, nil
}

func (t *Table) Update(ctx context.Context, u domain.User) (domain.User, error) {
	cur, err := t.Get(ctx, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	u.Email = domain.NormalizeEmail(u.Email)
	if u.Email != cur.Email {
		if err := t.reserveEmail(ctx, u.Email, u.ID); err != nil {
			return domain.User{}, err
		}
	}
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = t.now().UTC()
	payload, err := encodeUser(u)
	if err == nil {
		err = t.client.UpsertEntity(ctx, payload)
	}
	if err != nil {
		if u.Email != cur.Email {
			_ = t.client.DeleteEntity(ctx, emailPartition, u.Email)
		}
		return domain.User{}, err
	}
	if u.Email != cur.Email {
		_ = t.client.DeleteEntity(ctx, emailPartition, cur.Email)
	}
	return u, nil
}

func (t *Table) Delete(ctx context.Context, id string) error {
	u, err := t.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := t.client.DeleteEntity(ctx, userPartition, id); err != nil {
		return notFound(err)
	}
	if err := t.client.DeleteEntity(ctx, emailPartition, u.Email); err != nil && !isStatus(err, http.StatusNotFound) {
		return err
	}
	return nil
}

func (t *Table) reserveEmail(ctx context.Context, email, id string) error {
	payload, err := sonic.Marshal(emailEntity{
		Entity: Entity{PartitionKey: emailPartition, RowKey: email},
		UserID: id,
	})
	if err != nil {
		return err
	}
	if err := t.client.AddEntity(ctx, payload); err != nil {
		if isStatus(err, http.StatusConflict) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func encodeUser(u domain.User) ([]byte, error) {
	ent := userEntity{
		Entity:       Entity{PartitionKey: userPartition, RowKey: u.ID},
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !u.UpdatedAt.IsZero() {
		ent.UpdatedAt = u.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return sonic.Marshal(ent)
}

func decodeUser(data []byte) (domain.User, error) {
	var ent userEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:           ent.RowKey,
		Username:     ent.Username,
		Email:        ent.Email,
		PasswordHash: ent.PasswordHash,
	}
	var err error
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, ent.CreatedAt); err != nil {
		return domain.User{}, err
	}
	if ent.UpdatedAt != "" {
		if u.UpdatedAt, err = time.Parse(time.RFC3339Nano, ent.UpdatedAt); err != nil {
			return domain.User{}, err
		}
	}
	return u, nil
}

func isStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

func notFound(err error) error {
	if isStatus(err, http.StatusNotFound) {
		return ErrNotFound
	}
	return err
}

// azureTable adapts *aztables.Client to entityClient.
type azureTable struct{ c *aztables.Client }

func (a azureTable) AddEntity(ctx context.Context, payload []byte) error {
	_, err := a.c.AddEntity(ctx, payload, nil)
	return err
}

func (a azureTable) GetEntity(ctx context.Context, pk, rk string) ([]byte, error) {
	resp, err := a.c.GetEntity(ctx, pk, rk, nil)
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func (a azureTable) UpsertEntity(ctx context.Context, payload []byte) error {
	_, err := a.c.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

func (a azureTable) DeleteEntity(ctx context.Context, pk, rk string) error {
	et := azcore.ETagAny
	_, err := a.c.DeleteEntity(ctx, pk, rk, &aztables.DeleteEntityOptions{IfMatch: &et})
	return err
}

func (a azureTable) ListEntities(ctx context.Context, filter string) ([][]byte, error) {
	pager := a.c.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var out [][]byte
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, resp.Entities...)
	}
	return out, nil
}
