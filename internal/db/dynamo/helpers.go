package dynamo

import (
	"errors"
	"strconv"
	"time"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func ownerKey(owner string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"ownerId": &ddbtypes.AttributeValueMemberS{Value: owner},
	}
}

func millisNow() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func isConditionalCheckFailed(err error) bool {
	var ccf *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
