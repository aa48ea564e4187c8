package grpc

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// request reads typed fields out of a Struct message.
// Every parse failure is reported as codes.InvalidArgument.
type request struct {
	fields map[string]*structpb.Value
}

func newRequest(in *structpb.Struct) request {
	return request{fields: in.GetFields()}
}

// has reports whether key is present and not null
func (r request) has(key string) bool {
	v, ok := r.fields[key]
	if !ok || v == nil {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return !isNull
}

func (r request) str(key string) string {
	if !r.has(key) {
		return ""
	}
	return r.fields[key].GetStringValue()
}

func (r request) boolean(key string) bool {
	if !r.has(key) {
		return false
	}
	return r.fields[key].GetBoolValue()
}

func (r request) uuid(key string) (uuid.UUID, error) {
	if !r.has(key) {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	id, err := uuid.Parse(r.fields[key].GetStringValue())
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return id, nil
}

func (r request) optionalUUID(key string) (*uuid.UUID, error) {
	if !r.has(key) || r.fields[key].GetStringValue() == "" {
		return nil, nil
	}
	id, err := r.uuid(key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// amount accepts a JSON number or a decimal string and rounds it to cents
func (r request) amount(key string) (decimal.Decimal, error) {
	if !r.has(key) {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}

	switch v := r.fields[key].GetKind().(type) {
	case *structpb.Value_NumberValue:
		if math.IsNaN(v.NumberValue) || math.IsInf(v.NumberValue, 0) {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s: not a finite number", key)
		}
		return domain.MoneyFromFloat(v.NumberValue), nil
	case *structpb.Value_StringValue:
		d, err := domain.MoneyFromString(v.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s: expected a number", key)
	}
}

func (r request) optionalAmount(key string) (*decimal.Decimal, error) {
	if !r.has(key) {
		return nil, nil
	}
	d, err := r.amount(key)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// date parses a YYYY-MM-DD field; a missing field yields the zero time
func (r request) date(key string) (time.Time, error) {
	if !r.has(key) || r.fields[key].GetStringValue() == "" {
		return time.Time{}, nil
	}
	d, err := domain.ParseDay(r.fields[key].GetStringValue())
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return d, nil
}

func (r request) optionalDate(key string) (*time.Time, error) {
	d, err := r.date(key)
	if err != nil || d.IsZero() {
		return nil, err
	}
	return &d, nil
}

func (r request) optionalInt(key string) (*int, error) {
	if !r.has(key) {
		return nil, nil
	}
	f := r.fields[key].GetNumberValue()
	if f != math.Trunc(f) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s: expected an integer", key)
	}
	// Stored as a Postgres INTEGER
	if f < math.MinInt32 || f > math.MaxInt32 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid %s: out of range", key)
	}
	n := int(f)
	return &n, nil
}
