package pdf

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FormExtractor enumerates AcroForm fields using the pdfcpu library
type FormExtractor struct{}

// NewFormExtractor creates a new AcroForm field extractor
func NewFormExtractor() *FormExtractor {
	return &FormExtractor{}
}

// ExtractFromFile extracts all form fields from a PDF file
func (fe *FormExtractor) ExtractFromFile(filePath string) ([]FormField, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	return fe.ExtractFromReader(file)
}

// ExtractFromReader extracts form fields from an io.ReadSeeker
func (fe *FormExtractor) ExtractFromReader(reader io.ReadSeeker) ([]FormField, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(reader, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return fe.extractFromContext(ctx)
}

// extractFromContext walks the AcroForm Fields array of the catalog.
// Documents without an AcroForm yield an empty field list, not an error.
func (fe *FormExtractor) extractFromContext(ctx *model.Context) ([]FormField, error) {
	var fields []FormField

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return fields, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return fields, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return fields, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for i, fieldRef := range fieldsArray {
		field, err := fe.processField(ctx, fieldRef, i)
		if err != nil {
			continue
		}
		if field != nil {
			fields = append(fields, *field)
		}
	}

	return fields, nil
}

// processField builds one FormField from a field dictionary
func (fe *FormExtractor) processField(ctx *model.Context, fieldObj types.Object, index int) (*FormField, error) {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil, nil
	}

	field := &FormField{}

	if nameObj, found := fieldDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			field.Name = name
		}
	}
	if field.Name == "" {
		field.Name = fmt.Sprintf("field_%d", index)
	}

	field.Type = fe.extractFieldType(ctx, fieldDict)

	if valueObj, found := fieldDict.Find("V"); found {
		if val, err := ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
			field.Value = val
		} else if name, err := ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
			field.Value = name.Value()
		}
	}

	if flagsObj, found := fieldDict.Find("Ff"); found {
		if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			flagValue := *flags
			field.ReadOnly = (flagValue & 1) != 0 // Bit 1
			field.Required = (flagValue & 2) != 0 // Bit 2
			if field.Type == FieldTypeSelect {
				field.Multi = (flagValue & (1 << 21)) != 0 // Bit 22, MultiSelect
			}
		}
	}

	if maxLenObj, found := fieldDict.Find("MaxLen"); found {
		if maxLen, err := ctx.DereferenceInteger(maxLenObj); err == nil && maxLen != nil {
			field.MaxLen = int(*maxLen)
		}
	}

	if field.Type == FieldTypeSelect || field.Type == FieldTypeRadio || field.Type == FieldTypeCheckbox {
		field.Options = fe.extractFieldOptions(ctx, fieldDict)
	}

	field.Bounds, field.Page = fe.extractFieldBounds(ctx, fieldDict)

	return field, nil
}

// extractFieldType determines the field type from the FT entry,
// following Parent chains for inherited types
func (fe *FormExtractor) extractFieldType(ctx *model.Context, fieldDict types.Dict) FieldType {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return fe.extractFieldType(ctx, parentDict)
			}
		}
		return FieldTypeUnknown
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FieldTypeUnknown
	}

	switch ftName {
	case "Btn":
		if flagsObj, found := fieldDict.Find("Ff"); found {
			if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				flagValue := *flags
				if (flagValue & (1 << 15)) != 0 { // Bit 16: Radio
					return FieldTypeRadio
				} else if (flagValue & (1 << 16)) != 0 { // Bit 17: Pushbutton
					return FieldTypeButton
				}
			}
		}
		return FieldTypeCheckbox
	case "Tx":
		return FieldTypeText
	case "Ch":
		return FieldTypeSelect
	case "Sig":
		return FieldTypeSignature
	default:
		return FieldTypeUnknown
	}
}

// extractFieldOptions collects choice options from the /Opt array and,
// for button fields, from the appearance state names of the Kids widget
// annotations. The /Off state is the unchecked appearance, not an
// option.
func (fe *FormExtractor) extractFieldOptions(ctx *model.Context, fieldDict types.Dict) []string {
	var options []string

	if optObj, found := fieldDict.Find("Opt"); found {
		if optArray, err := ctx.DereferenceArray(optObj); err == nil {
			for _, opt := range optArray {
				// Options can be strings or [export_value, display_value] pairs
				if str, err := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
					options = append(options, str)
				} else if arr, err := ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
					if displayVal, err := ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
						options = append(options, displayVal)
					}
				}
			}
		}
	}

	if len(options) > 0 {
		return options
	}

	kidsObj, found := fieldDict.Find("Kids")
	if !found {
		return options
	}
	kidsArray, err := ctx.DereferenceArray(kidsObj)
	if err != nil {
		return options
	}

	seen := make(map[string]struct{})
	for _, kid := range kidsArray {
		widgetDict, err := ctx.DereferenceDict(kid)
		if err != nil || widgetDict == nil {
			continue
		}
		apObj, found := widgetDict.Find("AP")
		if !found {
			continue
		}
		apDict, err := ctx.DereferenceDict(apObj)
		if err != nil || apDict == nil {
			continue
		}
		nObj, found := apDict.Find("N")
		if !found {
			continue
		}
		nDict, err := ctx.DereferenceDict(nObj)
		if err != nil || nDict == nil {
			continue
		}
		for state := range nDict {
			if state == "Off" {
				continue
			}
			if _, dup := seen[state]; dup {
				continue
			}
			seen[state] = struct{}{}
			options = append(options, state)
		}
	}

	return options
}

// extractFieldBounds extracts the widget rectangle, from the field
// dictionary itself for merged widgets or from the first kid otherwise
func (fe *FormExtractor) extractFieldBounds(ctx *model.Context, fieldDict types.Dict) (*BoundingBox, int) {
	if rectObj, found := fieldDict.Find("Rect"); found {
		if rect := fe.parseRect(ctx, rectObj); rect != nil {
			return rect, 0
		}
	}

	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil && len(kidsArray) > 0 {
			if widgetDict, err := ctx.DereferenceDict(kidsArray[0]); err == nil && widgetDict != nil {
				if rectObj, found := widgetDict.Find("Rect"); found {
					if rect := fe.parseRect(ctx, rectObj); rect != nil {
						return rect, 0
					}
				}
			}
		}
	}

	return nil, 0
}

// parseRect parses a /Rect array. The owning page is not recoverable
// from the annotation alone; downstream the page locator assigns fields
// to pages from text evidence instead.
func (fe *FormExtractor) parseRect(ctx *model.Context, rectObj types.Object) *BoundingBox {
	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return nil
	}

	coords := make([]float64, 4)
	for i, coord := range rectArray {
		if f, err := ctx.DereferenceNumber(coord); err == nil {
			coords[i] = f
		}
	}

	return &BoundingBox{
		LowerLeft:  Coordinate{X: coords[0], Y: coords[1]},
		UpperRight: Coordinate{X: coords[2], Y: coords[3]},
		Width:      coords[2] - coords[0],
		Height:     coords[3] - coords[1],
	}
}
