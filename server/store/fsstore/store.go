package fsstore

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tonightapp/tonight/server/store"
)

// MaxUpdateAttempts is how often a transaction is tried before it fails with store.ErrConflict.
const MaxUpdateAttempts = 10

const (
	locationsCollection = "locationPolls"
	groupsCollection    = "groups"
	pollsCollection     = "polls"
	messagesCollection  = "messages"
)

// Logger is the logging the store needs. The plugin API satisfies it.
type Logger interface {
	LogWarn(msg string, keyValuePairs ...interface{})
}

// Config holds the Firebase project settings.
type Config struct {
	ProjectID string
	// CredentialsJSON is a service account key. Application default credentials are used if it is empty.
	CredentialsJSON string
}

// Store is a document store on Cloud Firestore.
//
// Layout:
//
//	locationPolls/{sha256(location)}
//	groups/{groupID}/polls/{pollID}
//	groups/{groupID}/messages/{messageID}
type Store struct {
	client *firestore.Client
	log    Logger

	// ctx is canceled on Close and ends all listeners.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	locationStore LocationPollStore
	groupStore    GroupPollStore
	chatStore     ChatStore
}

// NewStore connects to the Firestore database of a Firebase project.
func NewStore(ctx context.Context, config Config, log Logger) (*Store, error) {
	if config.ProjectID == "" {
		return nil, errors.New("firebase project ID is not set")
	}

	var opts []option.ClientOption
	if config.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: config.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize firebase app")
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create firestore client")
	}

	return New(client, log), nil
}

// New creates a store on an existing client. The store owns the client and closes it on Close.
func New(client *firestore.Client, log Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		client: client,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	s.locationStore = LocationPollStore{s: s}
	s.groupStore = GroupPollStore{s: s}
	s.chatStore = ChatStore{s: s}
	return s
}

func (s *Store) LocationPoll() store.LocationPollStore { return &s.locationStore }
func (s *Store) GroupPoll() store.GroupPollStore       { return &s.groupStore }
func (s *Store) Chat() store.ChatStore                 { return &s.chatStore }

// Close stops all listeners and closes the client.
func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.client.Close()
}

func (s *Store) group(groupID string) *firestore.DocumentRef {
	return s.client.Collection(groupsCollection).Doc(groupID)
}

// listen runs run in the background until it returns or the returned function is called.
// The returned function may be called any number of times.
func (s *Store) listen(run func(ctx context.Context) error) func() {
	ctx, cancel := context.WithCancel(s.ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		if err := run(ctx); err != nil && ctx.Err() == nil && status.Code(err) != codes.Canceled {
			s.log.LogWarn("Firestore listener stopped", "error", err.Error())
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }
}

// transactionError maps an exhausted transaction to store.ErrConflict.
func transactionError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Aborted {
		return store.ErrConflict
	}
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
