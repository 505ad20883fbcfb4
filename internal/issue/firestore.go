package issue

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fsIssueData struct {
	Value      string
	AppVersion string
	OccurredAt time.Time
}

func (d *fsIssueData) toIssue(id string) *registry.Issue {
	return &registry.Issue{
		ID:         id,
		Value:      d.Value,
		AppVersion: d.AppVersion,
		OccurredAt: d.OccurredAt,
	}
}

type FirestoreStore struct {
	db               *firestore.Client
	collectionPrefix string
}

func NewFirestoreStore(db *firestore.Client, collectionPrefix string) *FirestoreStore {
	return &FirestoreStore{
		db:               db,
		collectionPrefix: collectionPrefix,
	}
}

func (f *FirestoreStore) getColRef() *firestore.CollectionRef {
	return f.db.Collection(f.collectionPrefix + "-issues")
}

func (f *FirestoreStore) Save(ctx context.Context, issue *registry.Issue) error {
	_, err := f.getColRef().Doc(issue.ID).Set(ctx, &fsIssueData{
		Value:      issue.Value,
		AppVersion: issue.AppVersion,
		OccurredAt: issue.OccurredAt,
	})
	return err
}

func (f *FirestoreStore) count(ctx context.Context) (int, error) {
	res, err := f.getColRef().NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	count, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", res["all"])
	}
	return int(count.GetIntegerValue()), nil
}

func toIssues(docs []*firestore.DocumentSnapshot) ([]*registry.Issue, error) {
	res := make([]*registry.Issue, len(docs))
	for i, doc := range docs {
		var data fsIssueData
		if err := doc.DataTo(&data); err != nil {
			return nil, err
		}
		res[i] = data.toIssue(doc.Ref.ID)
	}
	return res, nil
}

func (f *FirestoreStore) List(ctx context.Context, offset, limit int) ([]*registry.Issue, int, error) {
	total, err := f.count(ctx)
	if err != nil {
		return nil, 0, err
	}
	docs, err := f.getColRef().OrderBy("OccurredAt", firestore.Desc).Offset(offset).Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, err
	}
	issues, err := toIssues(docs)
	if err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (f *FirestoreStore) Get(ctx context.Context, id string) (*registry.Issue, error) {
	doc, err := f.getColRef().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrIssueNotFound
	}
	if err != nil {
		return nil, err
	}
	var data fsIssueData
	if err := doc.DataTo(&data); err != nil {
		return nil, err
	}
	return data.toIssue(doc.Ref.ID), nil
}

func (f *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := f.getColRef().Doc(id).Delete(ctx)
	return err
}

func (f *FirestoreStore) Find(ctx context.Context, from, to time.Time) ([]*registry.Issue, error) {
	docs, err := f.getColRef().Where("OccurredAt", ">=", from).Where("OccurredAt", "<=", to).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return toIssues(docs)
}
