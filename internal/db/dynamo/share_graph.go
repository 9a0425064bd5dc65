package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"whereabouts/internal/domain"
)

// ShareGraphRepo persists share entries as one item per owner.
type ShareGraphRepo struct {
	client *dynamodb.Client
	table  string
}

var _ domain.ShareGraphRepository = (*ShareGraphRepo)(nil)

func NewShareGraphRepo(client *dynamodb.Client, table string) *ShareGraphRepo {
	return &ShareGraphRepo{client: client, table: table}
}

type shareItem struct {
	Owner       string   `dynamodbav:"ownerId"`
	SharedWith  []string `dynamodbav:"sharedWith"`
	IsSharing   bool     `dynamodbav:"isSharing"`
	LastUpdated int64    `dynamodbav:"lastUpdated"`
}

func shareItemFromEntry(entry *domain.ShareGraphEntry) shareItem {
	grantees := entry.Grantees
	if grantees == nil {
		grantees = []string{}
	}
	return shareItem{
		Owner:       entry.Owner,
		SharedWith:  grantees,
		IsSharing:   entry.SharingEnabled,
		LastUpdated: entry.LastUpdated.UnixMilli(),
	}
}

func (it shareItem) toEntry() *domain.ShareGraphEntry {
	grantees := it.SharedWith
	if grantees == nil {
		grantees = []string{}
	}
	return &domain.ShareGraphEntry{
		Owner:          it.Owner,
		Grantees:       grantees,
		SharingEnabled: it.IsSharing,
		LastUpdated:    time.UnixMilli(it.LastUpdated),
	}
}

func (r *ShareGraphRepo) Get(ctx context.Context, owner string) (*domain.ShareGraphEntry, error) {
	entry, err := r.get(ctx, owner)
	if err == nil {
		return entry, nil
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	// First sighting of this owner: persist the default entry so
	// later reads observe the same state. A concurrent writer winning
	// the race is fine, we re-read below either way.
	def := domain.NewShareGraphEntry(owner)
	item, merr := attributevalue.MarshalMap(shareItemFromEntry(def))
	if merr != nil {
		return nil, domain.ErrStore("marshal share entry", merr)
	}
	_, perr := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(ownerId)"),
	})
	if perr != nil && !isConditionalCheckFailed(perr) {
		return nil, domain.ErrStore("init share entry", perr)
	}

	return r.get(ctx, owner)
}

func (r *ShareGraphRepo) get(ctx context.Context, owner string) (*domain.ShareGraphEntry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            ownerKey(owner),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, domain.ErrStore("get share entry", err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound("share entry for %q not found", owner)
	}

	var it shareItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, domain.ErrStore("decode share entry", err)
	}
	return it.toEntry(), nil
}

func (r *ShareGraphRepo) Put(ctx context.Context, entry *domain.ShareGraphEntry) error {
	it := shareItemFromEntry(entry)
	it.LastUpdated = time.Now().UnixMilli()

	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return domain.ErrStore("marshal share entry", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return domain.ErrStore("put share entry", err)
	}
	return nil
}

func (r *ShareGraphRepo) SetSharingEnabled(ctx context.Context, owner string, enabled bool) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.table),
		Key:              ownerKey(owner),
		UpdateExpression: aws.String("SET isSharing = :e, lastUpdated = :t, sharedWith = if_not_exists(sharedWith, :empty)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":e":     &ddbtypes.AttributeValueMemberBOOL{Value: enabled},
			":t":     &ddbtypes.AttributeValueMemberN{Value: millisNow()},
			":empty": &ddbtypes.AttributeValueMemberL{Value: []ddbtypes.AttributeValue{}},
		},
	})
	if err != nil {
		return domain.ErrStore("set sharing flag", err)
	}
	return nil
}
