package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-semantic-release/release-registry/pkg/registry"
)

type fsAuditData struct {
	AppVersion   string
	PlatformType string
	OccurredAt   time.Time
}

type fsVersionCountData struct {
	AppVersion   string
	PlatformType string
	Count        int64
}

// FirestoreStore keeps audit records in one collection per audit kind. Download
// counts per app version are maintained in a separate counter collection
// within the same transaction as the record itself.
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

func (f *FirestoreStore) getAuditColRef(kind registry.AuditKind) *firestore.CollectionRef {
	return f.db.Collection(fmt.Sprintf("%s-audits-%s", f.collectionPrefix, kind))
}

func (f *FirestoreStore) getVersionCountColRef() *firestore.CollectionRef {
	return f.db.Collection(f.collectionPrefix + "-downloads-by-version")
}

func (f *FirestoreStore) getVersionCountDocRef(record *registry.AuditRecord) *firestore.DocumentRef {
	// document ids must not contain slashes
	id := strings.ReplaceAll(fmt.Sprintf("%s_%s", record.PlatformType, record.AppVersion), "/", "%2F")
	return f.getVersionCountColRef().Doc(id)
}

func (f *FirestoreStore) Append(ctx context.Context, record *registry.AuditRecord) error {
	docRef := f.getAuditColRef(record.Kind).Doc(record.ID)
	data := &fsAuditData{
		AppVersion:   record.AppVersion,
		PlatformType: string(record.PlatformType),
		OccurredAt:   record.OccurredAt,
	}
	if record.Kind != registry.AuditKindDownload {
		_, err := docRef.Create(ctx, data)
		return err
	}
	return f.db.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(docRef, data); err != nil {
			return err
		}
		return tx.Set(f.getVersionCountDocRef(record), map[string]any{
			"AppVersion":   record.AppVersion,
			"PlatformType": string(record.PlatformType),
			"Count":        firestore.Increment(1),
		}, firestore.MergeAll)
	})
}

func (f *FirestoreStore) Find(ctx context.Context, kind registry.AuditKind, platform *registry.PlatformType, from, to time.Time) ([]*registry.AuditRecord, error) {
	q := f.getAuditColRef(kind).Where("OccurredAt", ">=", from).Where("OccurredAt", "<=", to)
	if platform != nil {
		q = q.Where("PlatformType", "==", string(*platform))
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	res := make([]*registry.AuditRecord, len(docs))
	for i, doc := range docs {
		var data fsAuditData
		if dErr := doc.DataTo(&data); dErr != nil {
			return nil, dErr
		}
		res[i] = &registry.AuditRecord{
			ID:           doc.Ref.ID,
			Kind:         kind,
			AppVersion:   data.AppVersion,
			PlatformType: registry.PlatformType(data.PlatformType),
			OccurredAt:   data.OccurredAt,
		}
	}
	return res, nil
}

func (f *FirestoreStore) CountDownloadsByVersion(ctx context.Context) ([]*registry.VersionCount, error) {
	docs, err := f.getVersionCountColRef().OrderBy("AppVersion", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	res := make([]*registry.VersionCount, len(docs))
	for i, doc := range docs {
		var data fsVersionCountData
		if dErr := doc.DataTo(&data); dErr != nil {
			return nil, dErr
		}
		res[i] = &registry.VersionCount{
			AppVersion:   data.AppVersion,
			PlatformType: registry.PlatformType(data.PlatformType),
			Count:        data.Count,
		}
	}
	return res, nil
}
