package usecase

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

var validate = validator.New()

func validatePayload(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace()+" failed '"+fe.Tag()+"'")
		}
		return domain.MalformedPayload("invalid payload: "+strings.Join(fields, ", "), nil)
	}
	return domain.MalformedPayload("invalid payload", err)
}

func validateIdentifier(f smp.Factory, kind smp.Kind, id smp.Identifier) (smp.Identifier, error) {
	out, err := smp.New(f.Mode, kind, id.Scheme, id.Value)
	if err != nil {
		return smp.Identifier{}, domain.InvalidIdentifier(err)
	}
	return out, nil
}

// requireOwnedGroup loads the service group and checks that user owns it.
func requireOwnedGroup(ctx context.Context, store ServiceGroupStore, user domain.User, id smp.Identifier) (*domain.ServiceGroup, error) {
	sg, err := store.Get(ctx, id)
	if err != nil {
		return nil, domain.StorageFailure(err)
	}
	if sg == nil {
		return nil, domain.NotFound("service group " + id.URIEncoded())
	}
	if sg.OwnerID != user.ID {
		return nil, domain.NotOwner("service group " + id.URIEncoded())
	}
	return sg, nil
}
