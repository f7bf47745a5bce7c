package store

import "context"

// FaultyStore wraps a Store and fails selected operations. Error-path tests
// use it to exercise degrade-to-defaults loads and fatal save failures.
type FaultyStore struct {
	Inner Store
	// FailGet/FailSet return this error for matching namespaces when set.
	FailGet map[string]error
	FailSet map[string]error
}

func (f *FaultyStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err, ok := f.FailGet[namespace]; ok {
		return nil, err
	}
	return f.Inner.Get(ctx, namespace, key)
}

func (f *FaultyStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err, ok := f.FailSet[namespace]; ok {
		return err
	}
	return f.Inner.Set(ctx, namespace, key, value)
}

func (f *FaultyStore) Delete(ctx context.Context, namespace, key string) error {
	return f.Inner.Delete(ctx, namespace, key)
}

func (f *FaultyStore) List(ctx context.Context, namespace string) ([]Record, error) {
	return f.Inner.List(ctx, namespace)
}

func (f *FaultyStore) Close() error { return f.Inner.Close() }
