package domain

import (
	"context"
	"sync"

	smp "github.com/totegamma/smp"
)

type ServiceGroupListener interface {
	ServiceGroupCreatedOrUpdated(ctx context.Context, sg ServiceGroup)
	ServiceGroupDeleted(ctx context.Context, id smp.Identifier)
}

type ServiceInformationListener interface {
	ServiceInformationCreatedOrUpdated(ctx context.Context, si ServiceInformation)
	ServiceInformationDeleted(ctx context.Context, key ServiceMetadataKey)
}

type RedirectListener interface {
	RedirectCreatedOrUpdated(ctx context.Context, r Redirect)
	RedirectDeleted(ctx context.Context, key ServiceMetadataKey)
}

type BusinessCardListener interface {
	BusinessCardCreatedOrUpdated(ctx context.Context, bc BusinessCard)
	BusinessCardDeleted(ctx context.Context, id smp.Identifier)
}

// Listeners holds the listener registrations shared by the stores of one
// backend and dispatches post-commit notifications in commit order.
//
// Listeners must not write to the stores they observe.
type Listeners struct {
	commitMu sync.Mutex
	notifyMu sync.Mutex

	mu                 sync.RWMutex
	serviceGroup       []ServiceGroupListener
	serviceInformation []ServiceInformationListener
	redirect           []RedirectListener
	businessCard       []BusinessCardListener
}

func NewListeners() *Listeners {
	return &Listeners{}
}

// Commit runs write and, if it succeeded, notify. The notification of a
// commit always completes before the notification of the next commit starts,
// while the next write may already proceed.
func (l *Listeners) Commit(write func() error, notify func()) error {
	l.commitMu.Lock()
	err := write()
	l.notifyMu.Lock()
	l.commitMu.Unlock()
	defer l.notifyMu.Unlock()

	if err != nil {
		return err
	}
	if notify != nil {
		notify()
	}
	return nil
}

func (l *Listeners) AddServiceGroupListener(x ServiceGroupListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.serviceGroup = append(l.serviceGroup, x)
}

func (l *Listeners) AddServiceInformationListener(x ServiceInformationListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.serviceInformation = append(l.serviceInformation, x)
}

func (l *Listeners) AddRedirectListener(x RedirectListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.redirect = append(l.redirect, x)
}

func (l *Listeners) AddBusinessCardListener(x BusinessCardListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.businessCard = append(l.businessCard, x)
}

func (l *Listeners) ServiceGroupCreatedOrUpdated(ctx context.Context, sg ServiceGroup) {
	l.mu.RLock()
	targets := l.serviceGroup
	l.mu.RUnlock()
	for _, x := range targets {
		x.ServiceGroupCreatedOrUpdated(ctx, sg)
	}
}

func (l *Listeners) ServiceGroupDeleted(ctx context.Context, id smp.Identifier) {
	l.mu.RLock()
	targets := l.serviceGroup
	l.mu.RUnlock()
	for _, x := range targets {
		x.ServiceGroupDeleted(ctx, id)
	}
}

func (l *Listeners) ServiceInformationCreatedOrUpdated(ctx context.Context, si ServiceInformation) {
	l.mu.RLock()
	targets := l.serviceInformation
	l.mu.RUnlock()
	for _, x := range targets {
		x.ServiceInformationCreatedOrUpdated(ctx, si)
	}
}

func (l *Listeners) ServiceInformationDeleted(ctx context.Context, key ServiceMetadataKey) {
	l.mu.RLock()
	targets := l.serviceInformation
	l.mu.RUnlock()
	for _, x := range targets {
		x.ServiceInformationDeleted(ctx, key)
	}
}

func (l *Listeners) RedirectCreatedOrUpdated(ctx context.Context, r Redirect) {
	l.mu.RLock()
	targets := l.redirect
	l.mu.RUnlock()
	for _, x := range targets {
		x.RedirectCreatedOrUpdated(ctx, r)
	}
}

func (l *Listeners) RedirectDeleted(ctx context.Context, key ServiceMetadataKey) {
	l.mu.RLock()
	targets := l.redirect
	l.mu.RUnlock()
	for _, x := range targets {
		x.RedirectDeleted(ctx, key)
	}
}

func (l *Listeners) BusinessCardCreatedOrUpdated(ctx context.Context, bc BusinessCard) {
	l.mu.RLock()
	targets := l.businessCard
	l.mu.RUnlock()
	for _, x := range targets {
		x.BusinessCardCreatedOrUpdated(ctx, bc)
	}
}

func (l *Listeners) BusinessCardDeleted(ctx context.Context, id smp.Identifier) {
	l.mu.RLock()
	targets := l.businessCard
	l.mu.RUnlock()
	for _, x := range targets {
		x.BusinessCardDeleted(ctx, id)
	}
}
