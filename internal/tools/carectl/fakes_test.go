package carectl

import (
	"context"
	"errors"

	"github.com/louisbranch/selfcare/internal/account"
	"github.com/louisbranch/selfcare/internal/catalogue"
)

type fakeService struct {
	info      account.TokenInfo
	verifyErr error
	profile   account.Profile
	balances  []account.Balance
	catalogue catalogue.Catalogue
}

func (f *fakeService) VerifyToken(ctx context.Context, token string) (account.TokenInfo, error) {
	if f.verifyErr != nil {
		return account.TokenInfo{}, f.verifyErr
	}
	return f.info, nil
}

func (f *fakeService) FetchProfile(ctx context.Context, token string) (account.Profile, error) {
	return f.profile, nil
}

func (f *fakeService) FetchBalances(ctx context.Context, token string) ([]account.Balance, error) {
	return f.balances, nil
}

func (f *fakeService) FetchCatalogue(ctx context.Context, token string) (catalogue.Catalogue, error) {
	return f.catalogue, nil
}

type fakeSubscriber struct {
	confirmation account.Confirmation
	err          error
	calls        int
	gotOrder     account.Order
	gotBenef     string
}

func (f *fakeSubscriber) Submit(ctx context.Context, token string, order account.Order, beneficiary string) (account.Confirmation, error) {
	f.calls++
	f.gotOrder = order
	f.gotBenef = beneficiary
	if f.err != nil {
		return account.Confirmation{}, f.err
	}
	return f.confirmation, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

type fakeStore struct {
	token string
}

func (f *fakeStore) Get(ctx context.Context) (string, error) {
	if f.token == "" {
		return "", errors.New("no working token is stored")
	}
	return f.token, nil
}

func (f *fakeStore) Set(ctx context.Context, token string) error {
	f.token = token
	return nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.token = ""
	return nil
}
