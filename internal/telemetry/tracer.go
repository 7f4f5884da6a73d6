package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for share operations and storage backends. Share keys use
// the "share." prefix; storage backend keys use "storage.".
const (
	// Share operation attributes
	AttrOperation  = "share.operation"   // upload, browse, delete, restore, ...
	AttrPath       = "share.path"        // normalized key the operation targets
	AttrActor      = "share.actor"       // acting account email
	AttrFileCount  = "share.file_count"  // files in an upload batch
	AttrEntryCount = "share.entry_count" // entries in a listing result
	AttrTrashPath  = "share.trash_path"  // trash copy addressed by the operation
	AttrPublic     = "share.public"      // public flag after an access change

	// Client attributes
	AttrClientIP = "client.ip"

	// Storage backend attributes
	AttrStoreType = "storage.type"
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
)

// Span names follow the format share.<operation> for domain operations.

// Operation returns an attribute for the share operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// Path returns an attribute for the normalized key an operation targets
func Path(key string) attribute.KeyValue {
	return attribute.String(AttrPath, key)
}

// Actor returns an attribute for the acting account email
func Actor(email string) attribute.KeyValue {
	return attribute.String(AttrActor, email)
}

// FileCount returns an attribute for the size of an upload batch
func FileCount(n int) attribute.KeyValue {
	return attribute.Int(AttrFileCount, n)
}

// EntryCount returns an attribute for the size of a listing result
func EntryCount(n int) attribute.KeyValue {
	return attribute.Int(AttrEntryCount, n)
}

// TrashPath returns an attribute for the trash copy an operation addresses
func TrashPath(path string) attribute.KeyValue {
	return attribute.String(AttrTrashPath, path)
}

// Public returns an attribute for the public flag after an access change
func Public(public bool) attribute.KeyValue {
	return attribute.Bool(AttrPublic, public)
}

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// StoreType returns an attribute for the storage backend type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for the S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for the S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartShareSpan starts a span for one share operation, named
// "share.<operation>", carrying the operation, target key and actor.
func StartShareSpan(ctx context.Context, operation, path, actor string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Operation(operation),
		Path(path),
		Actor(actor),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "share."+operation, trace.WithAttributes(allAttrs...))
}
