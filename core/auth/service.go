package auth

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/crreddy/polysis/core"
)

const otpSubject = "Your OTP for College SIS Login"

type (
	OTPSent struct {
		Message   string `json:"message"`
		Email     string `json:"email"`
		ExpiresIn string `json:"expiresIn"`
	}

	LoginResult struct {
		Message string      `json:"message"`
		Tokens  TokenPair   `json:"tokens"`
		User    UserSummary `json:"user"`
	}

	RefreshResult struct {
		Message string    `json:"message"`
		Tokens  TokenPair `json:"tokens"`
	}
)

type Service struct {
	coll       core.Collection
	tokens     *Tokens
	mailSvc    core.EmailService
	validate   *validator.Validate
	adminEmail string
	otpTTL     time.Duration
	now        func() time.Time
}

func NewService(store core.Store, tokens *Tokens, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		coll:       store.Collection(Collection),
		tokens:     tokens,
		mailSvc:    mailSvc,
		validate:   validate,
		adminEmail: core.CleanString(conf.AdminEmail, true /* lower */),
		otpTTL:     conf.OTPTimeoutDelta,
		now:        core.Now,
	}
}

func (svc *Service) Tokens() *Tokens { return svc.tokens }

func (svc *Service) isAdminEmail(email string) bool {
	return svc.adminEmail != "" && email == svc.adminEmail
}

func (svc *Service) find(ctx context.Context, conds ...core.Condition) (AdminUser, error) {
	var usr AdminUser
	doc, err := svc.coll.FindOne(ctx, conds)
	if err != nil {
		return usr, err
	}
	err = core.FromDocument(doc, &usr)
	return usr, err
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (AdminUser, error) {
	email = core.CleanString(email, true /* lower */)
	return svc.find(ctx, core.Condition{Field: "email", Op: core.OpEq, Value: email})
}

func (svc *Service) GetByID(ctx context.Context, id string) (AdminUser, error) {
	oid, err := core.ParseID(id)
	if err != nil {
		return AdminUser{}, core.ErrNotFound
	}
	return svc.find(ctx, core.Condition{Field: "_id", Op: core.OpEq, Value: oid})
}

// GetByLogin finds an admin by username or email.
func (svc *Service) GetByLogin(ctx context.Context, login string) (AdminUser, error) {
	login = core.CleanString(login, true /* lower */)
	usr, err := svc.find(ctx, core.Condition{Field: "username", Op: core.OpEq, Value: login})
	if errors.Is(err, core.ErrNotFound) {
		return svc.GetByEmail(ctx, login)
	}
	return usr, err
}

func (svc *Service) save(ctx context.Context, usr AdminUser) (AdminUser, error) {
	usr.UpdatedDate = svc.now()
	if usr.ID.IsZero() {
		if usr.CreatedDate.IsZero() {
			usr.CreatedDate = usr.UpdatedDate
		}
		doc, err := svc.coll.Insert(ctx, usr)
		if err != nil {
			return usr, errors.Wrap(err, "creating admin user")
		}
		usr.ID, _ = core.DocumentID(doc)
		return usr, nil
	}
	if _, err := svc.coll.Replace(ctx, usr.ID, usr); err != nil {
		return usr, errors.Wrap(err, "saving admin user")
	}
	return usr, nil
}

// SendOTP emails a one-time password to the admin address, creating its account on first use.
func (svc *Service) SendOTP(ctx context.Context, email string) (*OTPSent, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !svc.isAdminEmail(email) {
		return nil, ErrEmailNotAllowed
	}

	usr, err := svc.GetByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		if usr, err = svc.save(ctx, newAdminUser(email, svc.now())); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "finding admin user")
	}
	if !usr.IsActive {
		return nil, ErrAccountInactive
	}

	code, err := generateOTP()
	if err != nil {
		return nil, errors.Wrap(err, "generating otp")
	}
	expiry := svc.now().Add(svc.otpTTL)
	usr.OTPCode = code
	usr.OTPExpiry = &expiry
	if _, err = svc.save(ctx, usr); err != nil {
		return nil, err
	}

	validFor := fmt.Sprintf("%d minutes", int(svc.otpTTL.Minutes()))
	err = svc.mailSvc.SendMessage(&core.EmailMessage{
		To:           []mail.Address{{Address: email}},
		Subject:      otpSubject,
		TemplateName: "otp",
		TemplateData: map[string]interface{}{"Code": code, "ValidFor": validFor},
	})
	if err != nil {
		return nil, ErrOTPNotSent.wrap(err)
	}
	return &OTPSent{
		Message:   "OTP sent successfully to your email",
		Email:     email,
		ExpiresIn: validFor,
	}, nil
}

// VerifyOTP logs the admin in with the code received by email. The code can only be used once.
func (svc *Service) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	email = core.CleanString(email, true /* lower */)
	code = core.CleanString(code)
	if email == "" || code == "" {
		return nil, ErrEmailOTPRequired
	}
	if !svc.isAdminEmail(email) {
		return nil, ErrUnauthorized
	}

	usr, err := svc.GetByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "finding admin user")
	}
	if err = verifyOTP(usr, code, svc.now()); err != nil {
		return nil, err
	}

	usr.clearOTP()
	return svc.login(ctx, usr)
}

// Login authenticates the admin with a password.
func (svc *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if !svc.isAdminEmail(email) {
		return nil, ErrUnauthorized
	}

	usr, err := svc.GetByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, errors.Wrap(err, "finding admin user")
	}
	if !usr.IsActive || usr.PasswordHash == "" || usr.CheckPassword(password) != nil {
		return nil, ErrInvalidCredentials
	}
	return svc.login(ctx, usr)
}

func (svc *Service) login(ctx context.Context, usr AdminUser) (*LoginResult, error) {
	now := svc.now()
	usr.LastLogin = &now
	usr, err := svc.save(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}

	pair, err := svc.tokens.Generate(usr)
	if err != nil {
		return nil, errors.Wrap(err, "generating tokens")
	}
	return &LoginResult{Message: "Login successful", Tokens: pair, User: usr.Summary()}, nil
}

// Refresh exchanges a refresh token for a new pair.
func (svc *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	refreshToken = core.CleanString(refreshToken)
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}
	claims, err := svc.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	usr, err := svc.GetByID(ctx, claims.Subject)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrUserInactive
	} else if err != nil {
		return nil, errors.Wrap(err, "finding admin user")
	}
	if !usr.IsActive {
		return nil, ErrUserInactive
	}

	pair, err := svc.tokens.Generate(usr, claims.OrigIssuedAt)
	if err != nil {
		return nil, errors.Wrap(err, "generating tokens")
	}
	return &RefreshResult{Message: "Token refreshed", Tokens: pair}, nil
}

// CreateAdmin creates an active admin, or updates the password and names of the existing one.
func (svc *Service) CreateAdmin(ctx context.Context, na NewAdmin) (AdminUser, error) {
	na.clean()
	if err := svc.validate.Struct(na); err != nil {
		return AdminUser{}, err
	}

	usr, err := svc.GetByEmail(ctx, na.Email)
	if errors.Is(err, core.ErrNotFound) {
		usr = newAdminUser(na.Email, svc.now())
	} else if err != nil {
		return usr, errors.Wrap(err, "finding admin user")
	}
	if na.Username != "" {
		usr.Username = na.Username
	}
	if na.FirstName != "" {
		usr.FirstName = na.FirstName
	}
	if na.LastName != "" {
		usr.LastName = na.LastName
	}
	usr.IsActive = true
	if err = usr.SetPassword(na.Password); err != nil {
		return usr, errors.Wrap(err, "hashing password")
	}
	return svc.save(ctx, usr)
}

// ResetPassword sets a new password on the admin identified by username or email.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (AdminUser, error) {
	rp.Login = core.CleanString(rp.Login, true /* lower */)
	if err := svc.validate.Struct(rp); err != nil {
		return AdminUser{}, err
	}
	usr, err := svc.GetByLogin(ctx, rp.Login)
	if err != nil {
		return usr, err
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return usr, errors.Wrap(err, "hashing password")
	}
	return svc.save(ctx, usr)
}

// ClearExpiredOTPs removes the codes that can no longer be used.
func (svc *Service) ClearExpiredOTPs(ctx context.Context) (int64, error) {
	return svc.coll.UpdateMany(ctx,
		[]core.Condition{{Field: "otpExpiry", Op: core.OpRange, Value: map[string]interface{}{"$lt": svc.now()}}},
		core.Document{"otpCode": nil, "otpExpiry": nil},
	)
}
