package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirestoreOptions selects the project and credentials for FirestoreClient.
// When CredentialsFile is empty the bearer token passed to the factory is
// used instead.
type FirestoreOptions struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreClient stores each collection as a Firestore collection named
// "<site>_<list>", or "<list>" when no site is given.
type FirestoreClient struct {
	client *firestore.Client
}

func NewFirestoreClient(ctx context.Context, token string, opts FirestoreOptions) (*FirestoreClient, error) {
	var opt option.ClientOption
	if opts.CredentialsFile != "" {
		opt = option.WithCredentialsFile(opts.CredentialsFile)
	} else {
		opt = option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client, err := firestore.NewClient(ctx, opts.ProjectID, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}
	return &FirestoreClient{client: client}, nil
}

// FirestoreFactory returns a Factory building FirestoreClients. The client
// is reused until the token changes; the replaced client is closed.
func FirestoreFactory(ctx context.Context, opts FirestoreOptions) Factory {
	var (
		mu      sync.Mutex
		current *FirestoreClient
		issued  string
	)
	return func(token string) (Client, error) {
		mu.Lock()
		defer mu.Unlock()
		if current != nil && (issued == token || opts.CredentialsFile != "") {
			return current, nil
		}
		c, err := NewFirestoreClient(ctx, token, opts)
		if err != nil {
			return nil, err
		}
		if current != nil {
			_ = current.Close()
		}
		current, issued = c, token
		return c, nil
	}
}

func (c *FirestoreClient) Close() error {
	return c.client.Close()
}

// CollectionName maps ref onto a Firestore collection id.
func CollectionName(ref CollectionRef) string {
	site := strings.NewReplacer(":", "", "/", "_", ".", "_").Replace(strings.Trim(ref.Site, "/"))
	if site == "" {
		return ref.List
	}
	return site + "_" + ref.List
}

// Resolve checks that every collection is readable.
func (c *FirestoreClient) Resolve(ctx context.Context, refs ...CollectionRef) error {
	for _, ref := range refs {
		iter := c.client.Collection(CollectionName(ref)).Limit(1).Documents(ctx)
		_, err := iter.Next()
		iter.Stop()
		if err != nil && err != iterator.Done {
			return fmt.Errorf("resolve %s: %w", ref, err)
		}
	}
	return nil
}

func (c *FirestoreClient) List(ctx context.Context, ref CollectionRef) ([]Record, error) {
	iter := c.client.Collection(CollectionName(ref)).Documents(ctx)
	defer iter.Stop()

	var out []Record
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", ref, err)
		}
		r := Record(doc.Data())
		r["id"] = doc.Ref.ID
		out = append(out, r)
	}
	return out, nil
}

func (c *FirestoreClient) Create(ctx context.Context, ref CollectionRef, fields Record) (Record, error) {
	doc := c.client.Collection(CollectionName(ref)).NewDoc()
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "id" {
			data[k] = v
		}
	}
	if _, err := doc.Set(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to create in %s: %w", ref, err)
	}
	out := Record(data)
	out["id"] = doc.ID
	return out, nil
}

func (c *FirestoreClient) Update(ctx context.Context, ref CollectionRef, id string, fields Record) error {
	doc := c.client.Collection(CollectionName(ref)).Doc(id)
	if _, err := doc.Set(ctx, map[string]any(fields), firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update %s in %s: %w", id, ref, err)
	}
	return nil
}

func (c *FirestoreClient) Delete(ctx context.Context, ref CollectionRef, id string) error {
	if _, err := c.client.Collection(CollectionName(ref)).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s in %s: %w", id, ref, err)
	}
	return nil
}
