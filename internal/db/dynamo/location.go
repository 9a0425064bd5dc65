package dynamo

import (
	"context"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"whereabouts/internal/domain"
)

// LocationRepo keeps the latest sample per owner, one item per key.
type LocationRepo struct {
	client *dynamodb.Client
	table  string
}

var _ domain.LocationRepository = (*LocationRepo)(nil)

func NewLocationRepo(client *dynamodb.Client, table string) *LocationRepo {
	return &LocationRepo{client: client, table: table}
}

type locationItem struct {
	Owner            string  `dynamodbav:"ownerId"`
	Latitude         float64 `dynamodbav:"latitude"`
	Longitude        float64 `dynamodbav:"longitude"`
	CapturedAtMillis int64   `dynamodbav:"capturedAt"`
}

func (it locationItem) toSample() domain.LocationSample {
	return domain.LocationSample{
		Owner:            it.Owner,
		Latitude:         it.Latitude,
		Longitude:        it.Longitude,
		CapturedAtMillis: it.CapturedAtMillis,
	}
}

// Upsert replaces the stored sample only when the incoming capture is
// at least as new. Stale samples are dropped without error.
func (r *LocationRepo) Upsert(ctx context.Context, sample *domain.LocationSample) error {
	item, err := attributevalue.MarshalMap(locationItem{
		Owner:            sample.Owner,
		Latitude:         sample.Latitude,
		Longitude:        sample.Longitude,
		CapturedAtMillis: sample.CapturedAtMillis,
	})
	if err != nil {
		return domain.ErrStore("marshal location", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(ownerId) OR capturedAt <= :ts"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":ts": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(sample.CapturedAtMillis, 10)},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil
		}
		return domain.ErrStore("upsert location", err)
	}
	return nil
}

func (r *LocationRepo) Get(ctx context.Context, owner string) (*domain.LocationSample, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            ownerKey(owner),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, domain.ErrStore("get location", err)
	}
	if out.Item == nil {
		return nil, domain.ErrNotFound("location for %q not found", owner)
	}

	var it locationItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, domain.ErrStore("decode location", err)
	}
	sample := it.toSample()
	return &sample, nil
}

func (r *LocationRepo) List(ctx context.Context) ([]domain.LocationSample, error) {
	samples := []domain.LocationSample{}
	var startKey map[string]ddbtypes.AttributeValue

	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, domain.ErrStore("list locations", err)
		}
		for _, item := range out.Items {
			var it locationItem
			if err := attributevalue.UnmarshalMap(item, &it); err != nil {
				return nil, domain.ErrStore("decode location", err)
			}
			samples = append(samples, it.toSample())
		}
		startKey = out.LastEvaluatedKey
		if startKey == nil {
			break
		}
	}

	// Scans return items in key-hash order; callers expect a stable
	// owner ordering.
	sort.Slice(samples, func(i, j int) bool { return samples[i].Owner < samples[j].Owner })
	return samples, nil
}

func (r *LocationRepo) Delete(ctx context.Context, owner string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       ownerKey(owner),
	})
	if err != nil {
		return domain.ErrStore("delete location", err)
	}
	return nil
}

func (r *LocationRepo) DeleteOlderThan(ctx context.Context, cutoffMillis int64) (int64, error) {
	var deleted int64
	var startKey map[string]ddbtypes.AttributeValue

	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(r.table),
			ProjectionExpression: aws.String("ownerId"),
			FilterExpression:     aws.String("capturedAt < :cutoff"),
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":cutoff": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(cutoffMillis, 10)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return deleted, domain.ErrStore("scan stale locations", err)
		}
		for _, item := range out.Items {
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.table),
				Key:       item,
			})
			if err != nil {
				return deleted, domain.ErrStore("delete stale location", err)
			}
			deleted++
		}
		startKey = out.LastEvaluatedKey
		if startKey == nil {
			break
		}
	}
	return deleted, nil
}
