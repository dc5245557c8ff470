// Package local implements the identity backend on the application's own
// database. Credentials live in a dedicated auth table and sessions are
// signed JWTs persisted through the settings store so they survive restarts.
package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xtime"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

const sessionSettingKey = "identity.session"

const revocationKeyPrefix = "identity.revoked_before."

// RevocationKeyFor returns the settings key holding a user's sign-out
// watermark, in microseconds since the epoch. Tokens issued at or before the
// watermark no longer authenticate.
func RevocationKeyFor(userID string) string {
	return revocationKeyPrefix + userID
}

// SecretKeyFunc resolves the HMAC signing key. Provided as a function so the
// key can live in the settings store and rotate without rebuilding the
// backend.
type SecretKeyFunc func(ctx context.Context) (string, error)

type Config struct {
	TokenTTL time.Duration `conf:"token_ttl" yaml:"token_ttl" json:"token_ttl"`
}

type Backend struct {
	db        *bun.DB
	cfg       Config
	secretKey SecretKeyFunc

	mu        sync.Mutex
	callbacks map[int]identity.Callback
	nextID    int
}

var _ identity.Backend = (*Backend)(nil)

func New(db *bun.DB, cfg Config, secretKey SecretKeyFunc) *Backend {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}

	return &Backend{
		db:        db,
		cfg:       cfg,
		secretKey: secretKey,
		callbacks: make(map[int]identity.Callback),
	}
}

func (b *Backend) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.Session, error) {
	exists, err := b.db.NewSelect().
		Model((*store.AuthUser)(nil)).
		Where("email = ?", email).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check existing identity: %w", err)
	}

	if exists {
		return nil, identity.NewError(identity.CodeEmailTaken, "email %q already registered", email)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &store.AuthUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    xtime.UTCNow(),
	}

	if _, err := b.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	log.Info(ctx, "identity registered",
		log.String("user_id", user.ID),
		log.String("full_name", meta.FullName()),
	)

	session, err := b.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	b.notify(identity.EventSignedIn, session)

	return session, nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	user := new(store.AuthUser)

	err := b.db.NewSelect().
		Model(user).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, identity.NewError(identity.CodeInvalidCredentials, "invalid email or password")
		}

		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, identity.NewError(identity.CodeInvalidCredentials, "invalid email or password")
	}

	session, err := b.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	b.notify(identity.EventSignedIn, session)

	return session, nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	// Revoke outstanding tokens for the signed-out user before dropping the
	// session record; a captured bearer token must not outlive the sign-out.
	if raw, err := b.loadSetting(ctx, sessionSettingKey); err == nil && raw != "" {
		var session identity.Session
		if err := json.Unmarshal([]byte(raw), &session); err == nil && session.UserID != "" {
			if err := b.revokeTokens(ctx, session.UserID); err != nil {
				return err
			}
		}
	}

	if err := b.clearSession(ctx); err != nil {
		return err
	}

	b.notify(identity.EventSignedOut, nil)

	return nil
}

func (b *Backend) revokeTokens(ctx context.Context, userID string) error {
	now := xtime.UTCNow()
	setting := &store.Setting{
		Key:       RevocationKeyFor(userID),
		Value:     strconv.FormatInt(now.UnixMicro(), 10),
		UpdatedAt: now,
	}

	if _, err := b.db.NewInsert().
		Model(setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("record token revocation: %w", err)
	}

	return nil
}

func (b *Backend) CurrentSession(ctx context.Context) (*identity.Session, error) {
	raw, err := b.loadSetting(ctx, sessionSettingKey)
	if err != nil {
		return nil, err
	}

	if raw == "" {
		return nil, nil
	}

	var session identity.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		log.Warn(ctx, "discarding unreadable persisted session", log.Cause(err))

		return nil, b.clearSession(ctx)
	}

	if err := b.verifyToken(ctx, session.Token); err != nil {
		log.Debug(ctx, "discarding invalid persisted session", log.Cause(err))

		return nil, b.clearSession(ctx)
	}

	return &session, nil
}

func (b *Backend) OnAuthStateChange(cb identity.Callback) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.callbacks[id] = cb

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.callbacks, id)
	}
}

func (b *Backend) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	res, err := b.db.NewUpdate().
		Model((*store.AuthUser)(nil)).
		Set("password_hash = ?", hashed).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return identity.NewError(identity.CodeUserNotFound, "identity %q not found", userID)
	}

	return nil
}

func (b *Backend) SendPasswordReset(ctx context.Context, email string) error {
	// No mail transport in local mode; the request is recorded so an operator
	// can act on it.
	log.Info(ctx, "password reset requested", log.String("email", email))

	return nil
}

func (b *Backend) DeleteUser(ctx context.Context, userID string) error {
	if _, err := b.db.NewDelete().
		Model((*store.AuthUser)(nil)).
		Where("id = ?", userID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	session, err := b.CurrentSession(ctx)
	if err != nil {
		return err
	}

	if session != nil && session.UserID == userID {
		if err := b.clearSession(ctx); err != nil {
			return err
		}

		b.notify(identity.EventTokenRevoked, nil)
	}

	return nil
}

func (b *Backend) issueSession(ctx context.Context, user *store.AuthUser) (*identity.Session, error) {
	key, err := b.secretKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("get secret key: %w", err)
	}

	now := xtime.UTCNow()
	expiresAt := now.Add(b.cfg.TokenTTL)

	// issued_at carries microseconds so the sign-out watermark can separate
	// tokens minted moments apart; the standard iat claim only has seconds.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   user.ID,
		"email":     user.Email,
		"exp":       expiresAt.Unix(),
		"issued_at": now.UnixMicro(),
	})

	signed, err := token.SignedString([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	session := &identity.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     signed,
		ExpiresAt: expiresAt,
	}

	if err := b.persistSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (b *Backend) verifyToken(ctx context.Context, tokenString string) error {
	key, err := b.secretKey(ctx)
	if err != nil {
		return fmt.Errorf("get secret key: %w", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(key), nil
	})
	if err != nil {
		return fmt.Errorf("parse session token: %w", err)
	}

	if !token.Valid {
		return fmt.Errorf("invalid session token")
	}

	return nil
}

func (b *Backend) persistSession(ctx context.Context, session *identity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	setting := &store.Setting{
		Key:       sessionSettingKey,
		Value:     string(raw),
		UpdatedAt: xtime.UTCNow(),
	}

	if _, err := b.db.NewInsert().
		Model(setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	return nil
}

func (b *Backend) clearSession(ctx context.Context) error {
	if _, err := b.db.NewDelete().
		Model((*store.Setting)(nil)).
		Where("key = ?", sessionSettingKey).
		Exec(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	return nil
}

func (b *Backend) loadSetting(ctx context.Context, key string) (string, error) {
	setting := new(store.Setting)

	err := b.db.NewSelect().
		Model(setting).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return "", nil
		}

		return "", fmt.Errorf("load setting %q: %w", key, err)
	}

	return setting.Value, nil
}

// HashPassword hashes a password using bcrypt. The hash is hex-encoded for
// storage.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hex.EncodeToString(hashedPassword), nil
}

// VerifyPassword verifies a password against a stored hash.
func VerifyPassword(hashedPassword, password string) error {
	decodedHashedPassword, err := hex.DecodeString(hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to decode hashed password: %w", err)
	}

	return bcrypt.CompareHashAndPassword(decodedHashedPassword, []byte(password))
}

// GenerateSecretKey generates a random 256-bit key for signing session
// tokens.
func GenerateSecretKey() (string, error) {
	bytes := make([]byte, 32)

	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}

func (b *Backend) notify(event identity.Event, session *identity.Session) {
	b.mu.Lock()
	callbacks := make([]identity.Callback, 0, len(b.callbacks))

	for _, cb := range b.callbacks {
		callbacks = append(callbacks, cb)
	}
	b.mu.Unlock()

	for _, cb := range callbacks {
		cb(event, session)
	}
}
