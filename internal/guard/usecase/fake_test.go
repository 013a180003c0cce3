package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/shandysiswandi/loginguard/internal/guard/entity"
	"github.com/shandysiswandi/loginguard/internal/pkg/clock"
	"github.com/shandysiswandi/loginguard/internal/pkg/config"
	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/loginguard/internal/pkg/hash"
	"github.com/shandysiswandi/loginguard/internal/pkg/instrument"
	"github.com/shandysiswandi/loginguard/internal/pkg/jwt"
	"github.com/shandysiswandi/loginguard/internal/pkg/lock"
	"github.com/shandysiswandi/loginguard/internal/pkg/validator"
)

const (
	janePassword = "Secret123!"
	clientIP     = "203.0.113.7"
	wrongCode    = "999999"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// scriptedCode hands out codes in order and repeats the last one.
type scriptedCode struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (g *scriptedCode) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	code := g.codes[min(g.next, len(g.codes)-1)]
	g.next++
	return code, nil
}

type seqString struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *seqString) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + strconv.Itoa(g.n)
}

type seqNumber struct {
	mu sync.Mutex
	n  int64
}

func (g *seqNumber) Generate() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.n
}

type fakeDB struct {
	mu      sync.Mutex
	clock   *clock.Manual
	users   []entity.User
	lookups int
	blocks  map[string]entity.BlockEntry
	order   []string
	err     error
}

func (f *fakeDB) GetUserByLogin(_ context.Context, login string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == login || u.Email == login {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) setStatus(id int64, st entity.UserStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].Status = st
		}
	}
}

func (f *fakeDB) IsBlocked(_ context.Context, ip string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[ip]
	if !ok {
		return false, nil
	}
	if !b.Active(now) {
		f.remove(ip)
		return false, nil
	}
	return true, nil
}

func (f *fakeDB) Block(_ context.Context, ip string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blocks[ip]; ok {
		b.ExpiresAt = expiresAt
		f.blocks[ip] = b
		return nil
	}
	f.blocks[ip] = entity.BlockEntry{IP: ip, ExpiresAt: expiresAt, CreatedAt: f.clock.Now()}
	f.order = append(f.order, ip)
	return nil
}

func (f *fakeDB) Unblock(_ context.Context, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remove(ip)
	return nil
}

func (f *fakeDB) ClearAll(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.blocks))
	f.blocks = map[string]entity.BlockEntry{}
	f.order = nil
	return n, nil
}

func (f *fakeDB) ListBlocks(context.Context) ([]entity.BlockEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.BlockEntry, 0, len(f.order))
	for _, ip := range f.order {
		out = append(out, f.blocks[ip])
	}
	return out, nil
}

func (f *fakeDB) block(ip string) (entity.BlockEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[ip]
	return b, ok
}

func (f *fakeDB) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func (f *fakeDB) remove(ip string) {
	delete(f.blocks, ip)
	for i, v := range f.order {
		if v == ip {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

type fakeCache struct {
	mu    sync.Mutex
	items map[string]entity.Challenge
	ttls  map[string]time.Duration
}

func (f *fakeCache) GetChallenge(_ context.Context, session string) (*entity.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.items[session]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &ch, nil
}

func (f *fakeCache) PutChallenge(_ context.Context, session string, c entity.Challenge, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[session] = c
	f.ttls[session] = ttl
	return nil
}

func (f *fakeCache) ClearChallenge(_ context.Context, session string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, session)
	return nil
}

func (f *fakeCache) get(session string) (entity.Challenge, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.items[session]
	return ch, ok
}

func (f *fakeCache) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type sentCode struct {
	To   entity.Recipient
	Code string
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeMail) SendCode(_ context.Context, to entity.Recipient, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCode{To: to, Code: code})
	return nil
}

func (f *fakeMail) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeMail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMail) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeMQ struct {
	mu     sync.Mutex
	events []entity.SecurityEvent
}

func (f *fakeMQ) PublishSecurityEvent(_ context.Context, ev entity.SecurityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeMQ) kinds() map[entity.SecurityEventKind]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[entity.SecurityEventKind]int{}
	for _, ev := range f.events {
		out[ev.Kind]++
	}
	return out
}

type upload struct {
	Key         string
	ContentType string
	Body        []byte
	TTL         time.Duration
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads []upload
}

func (f *fakeStorage) Upload(_ context.Context, key, contentType string, body []byte, urlTTL time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{Key: key, ContentType: contentType, Body: body, TTL: urlTTL})
	return "https://storage.test/" + key + "?signed", nil
}

type fakeLocker struct {
	mu         sync.Mutex
	keys       []string
	err        error
	releaseErr error
}

func (f *fakeLocker) Do(ctx context.Context, key string, fn func(context.Context) error, _ ...lock.Option) error {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	err, releaseErr := f.err, f.releaseErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}
	return releaseErr
}

type fakeJWT struct {
	mu   sync.Mutex
	now  func() time.Time
	subs []jwt.Subject
}

func (f *fakeJWT) Generate(sub jwt.Subject) (jwt.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	ttl := 15 * time.Minute
	if sub.Remember {
		ttl = 14 * 24 * time.Hour
	}
	return jwt.Token{Value: "token-" + sub.Username, ExpiresAt: f.now().Add(ttl)}, nil
}

func (f *fakeJWT) Verify(string) (jwt.Claims, error) {
	return jwt.Claims{}, jwt.ErrInvalidToken
}

const testRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	t.Helper()

	m, err := model.NewModelFromString(testRBACModel)
	if err != nil {
		t.Fatalf("NewModelFromString() error = %v", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	rules := [][]string{
		{"admin", entity.PermPolicy, "*"},
		{"admin", entity.PermBlockedIPs, "*"},
		{"auditor", entity.PermPolicy, entity.ActRead},
		{"auditor", entity.PermBlockedIPs, entity.ActRead},
	}
	for _, r := range rules {
		if _, err := e.AddPolicy(r[0], r[1], r[2]); err != nil {
			t.Fatalf("AddPolicy() error = %v", err)
		}
	}

	return e
}

const defaultTestConfig = `
modules:
  guard:
    otp_enabled: true
    events:
      enabled: true
`

type fixture struct {
	uc     *Usecase
	db     *fakeDB
	cache  *fakeCache
	mail   *fakeMail
	mq     *fakeMQ
	store  *fakeStorage
	locker *fakeLocker
	clock  *clock.Manual
	jwt    *fakeJWT
	gm     *goroutine.Manager
}

var (
	bcryptOnce sync.Once
	janeHash   string
	ariHash    string
)

func passwordHashes(t *testing.T) (string, string) {
	t.Helper()

	bcryptOnce.Do(func() {
		b, err := hash.NewBcrypt(4, "").Hash(janePassword)
		if err != nil {
			t.Fatalf("bcrypt Hash() error = %v", err)
		}
		a, err := hash.NewArgon2id("").Hash(janePassword)
		if err != nil {
			t.Fatalf("argon2id Hash() error = %v", err)
		}
		janeHash, ariHash = string(b), string(a)
	})

	return janeHash, ariHash
}

func newFixture(t *testing.T, yaml string, codes ...string) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}
	if len(codes) == 0 {
		codes = []string{"111111", "222222", "333333", "444444"}
	}

	bcryptHash, argonHash := passwordHashes(t)

	clk := clock.NewManual(baseTime)
	f := &fixture{
		db: &fakeDB{
			clock:  clk,
			blocks: map[string]entity.BlockEntry{},
			users: []entity.User{
				{ID: 7, Username: "jane", Email: "jane@example.com", DisplayName: "Jane Doe", PasswordHash: bcryptHash, Role: "user", Status: entity.UserStatusActive},
				{ID: 8, Username: "ari", Email: "ari@example.com", PasswordHash: argonHash, Role: "user", Status: entity.UserStatusActive},
				{ID: 9, Username: "sam", Email: "sam@example.com", PasswordHash: bcryptHash, Role: "user", Status: entity.UserStatusSuspended},
			},
		},
		cache:  &fakeCache{items: map[string]entity.Challenge{}, ttls: map[string]time.Duration{}},
		mail:   &fakeMail{},
		mq:     &fakeMQ{},
		store:  &fakeStorage{},
		locker: &fakeLocker{},
		clock:  clk,
		jwt:    &fakeJWT{now: clk.Now},
		gm:     goroutine.NewManager(goroutine.Config{Limit: 4}),
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoCache:     f.cache,
		RepoMail:      f.mail,
		RepoMessaging: f.mq,
		RepoStorage:   f.store,
		Locker:        f.locker,
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("challenge-secret"),
		Bcrypt:        hash.NewBcrypt(4, ""),
		Argon2ID:      hash.NewArgon2id(""),
		Code:          &scriptedCode{codes: codes},
		UID:           &seqNumber{},
		OID:           &seqString{prefix: "sess-"},
		Clock:         clk,
		JWT:           f.jwt,
		Instrument:    instrument.NewNoop(),
		Enforcer:      newTestEnforcer(t),
		Goroutine:     f.gm,
	})

	return f
}

// issue runs a login for jane that is expected to start the OTP step.
func (f *fixture) issue(t *testing.T) entity.Outcome {
	t.Helper()

	out, err := f.uc.Login(context.Background(), LoginInput{
		Username: "jane",
		Password: janePassword,
		ClientIP: clientIP,
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if out.Kind != entity.OutcomeIssued {
		t.Fatalf("Login() kind = %s, want issued", out.Kind)
	}

	return out
}

// events waits for background publishing and returns the counted kinds.
func (f *fixture) events(t *testing.T) map[entity.SecurityEventKind]int {
	t.Helper()

	if err := f.gm.Shutdown(context.Background()); err != nil {
		t.Fatalf("goroutine Shutdown() error = %v", err)
	}
	return f.mq.kinds()
}

func adminCtx(role string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: 1, Username: "root", Role: role})
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %v", err)
	}
	if gerr.Code() != want {
		t.Fatalf("error code = %s, want %s", gerr.Code(), want)
	}
}
