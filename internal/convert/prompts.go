package convert

import "fmt"

// codegenPromptTemplate instructs the model to emit a standalone
// python-pptx builder script that replicates the rendered HTML. The
// screenshot is the visual ground truth; the HTML supplies structure
// and data. The API warnings target the failure modes seen most often
// in generated python-pptx code.
const codegenPromptTemplate = `You are an expert presentation engineer specializing in pixel-perfect HTML-to-PowerPoint conversion.

OBJECTIVE: Write a STANDALONE Python script (builder.py) that converts the given HTML into an EXACT VISUAL REPLICA PowerPoint (.pptx).

CRITICAL: You have been provided with:
1. A SCREENSHOT showing the exact visual output of the HTML file as it renders in a browser
2. The complete HTML source code

YOU MUST STUDY THE SCREENSHOT VERY CAREFULLY. The screenshot shows the EXACT layout, colors, fonts, positions, spacing, and visual appearance that your PowerPoint output MUST match. Use the HTML code to understand the structure and extract data, but use the SCREENSHOT as the ground truth for all visual aspects.

CORE DIRECTIVES & CONSTRAINT HIERARCHY (follow this priority order when constraints conflict):

1. DISPLAY ALL DATA: Every single element, text node, image, and component from the HTML MUST be visibly rendered in the PowerPoint. Do NOT omit, truncate, hide, or reorder ANY data or visual elements.

2. EXACT VISUAL REPLICATION: Before writing any code, carefully analyze BOTH the screenshot and HTML:
   - Look at the screenshot first: study the actual rendered visual output
   - Note the exact positioning of every element in the screenshot
   - Observe the actual colors, fonts, sizes, and styling as they appear visually
   - Identify charts, tables, lists, and their exact data presentation
   - Measure spacing, padding, and gaps between elements visually
   - Then use the HTML to extract text content, data values, and structural information
   - Your PowerPoint MUST look identical to the screenshot - this is the PRIMARY reference

3. FIXED SLIDE DIMENSIONS: The PowerPoint slide MUST be exactly 1920px x 1080px (16:9 aspect ratio).
   - All content MUST fit within these dimensions
   - NO content should overflow or be hidden

4. MAINTAIN READABILITY: Body text font size should NOT fall below 12px. If content overflows: shrink padding first, then gaps, then cautiously reduce font sizes.

TECHNICAL REQUIREMENTS:

Libraries:
- Use ONLY: python-pptx, beautifulsoup4, lxml, Pillow, requests
- The script MUST provide a CLI: python builder.py --html input.html --out output.pptx
- Do NOT write base64 to stdout. Do NOT print PPTX content. Only create the file on disk.

CRITICAL - Methods/Classes that DO NOT EXIST in python-pptx:
- Px() - DOES NOT EXIST! Use Pt(), Emu, or direct multiplication by 9525.
- shapes.add_freeform_builder() - DOES NOT EXIST!
- MSO_SHAPE.LINE - DOES NOT EXIST! Use MSO_CONNECTOR.STRAIGHT for lines.
- DO NOT CHAIN FILL COMMANDS:
  - The .solid() method on a fill returns None. Chaining it will ALWAYS cause an AttributeError.
  - NEVER WRITE: shape.fill.solid().fore_color.rgb = ...
  - ALWAYS USE TWO STEPS:
    shape.fill.solid()
    shape.fill.fore_color.rgb = ...
- Available imports from pptx.util: Inches, Pt, Cm, Mm, Emu (NO Px!).
- For pixel values, use direct EMU conversion: px_value * 9525.
- For lines/connectors: use shapes.add_connector(MSO_CONNECTOR.STRAIGHT, ...).

API USAGE - BULLET POINTS:
- Bullet properties belong to the paragraph object, NOT the font object.
- Incorrect: run.font.bullet.char = "*" -> raises AttributeError.
- Correct: set paragraph.level to apply the default bullet style.

API USAGE - PARAGRAPH FORMAT:
- Paragraph formatting is accessed directly on the paragraph object.
- Incorrect: p.paragraph_format.alignment = ... -> raises AttributeError.
- Correct: p.alignment = ...

JSON EXTRACTION:
- If data is inside a <script> tag, use a regular expression to reliably extract the JSON object. Do NOT use brittle string splitting like .split('=')[1].

Coordinate System:
- Slide dimensions: 1920 x 1080 pixels
- Convert to EMU: 1 px = 9525 EMU (exactly)
- Slide width = 1920 * 9525 = 18288000 EMU
- Slide height = 1080 * 9525 = 10287000 EMU

Positioning & Layout:
- Parse ALL CSS positioning (absolute, relative, flex, grid)
- For flexbox/grid layouts: compute final absolute positions for each element
- Map the CSS box model (margin, border, padding, content) to PowerPoint shapes
- Respect z-index layering (render elements in correct order)

Typography:
- Default font family: "Segoe UI", fallback to "Calibri" or "Arial"
- Font sizes must match HTML exactly (convert px to pt: pt = px * 0.75)
- Preserve bold, italic, underline, text-align, and colors
- Handle inline formatting: <b>, <i>, <strong>, <em>, <span style="color:...">

Colors & Backgrounds:
- Parse and apply all background colors, text colors, and border styles
- All container boxes and shapes MUST have sharp, 90-degree corners; do not use rounded rectangles

Images:
- If <img> has a remote src, download it using requests
- If <img> has a data: URI, decode and save it
- Place images at exact positions with exact dimensions

Charts & Visualizations:
- If the HTML contains <canvas> elements or Chart.js references, analyze the data
- Recreate charts using PowerPoint shapes, text boxes, and smart positioning
- Display ALL data labels, values, and legends exactly as in the HTML

Tables:
- Use PowerPoint table objects for <table> elements; match cell borders, backgrounds, and alignment

Lists:
- Use PowerPoint text boxes with bullet formatting for <ul>/<ol>; match indentation and spacing

DYNAMIC SIZING & SPACE OPTIMIZATION:
- Components with more data get more space; do NOT leave large empty areas
- If content threatens to overflow: reduce padding first, then gaps, then font sizes (not below minimums)

DELIVERABLES:
- Output ONLY a single, complete Python file between triple backticks (` + "```python ... ```" + `)
- The code must be self-contained and executable after: pip install python-pptx beautifulsoup4 lxml Pillow requests
- Must work with: python builder.py --html input.html --out output.pptx
- Handle errors gracefully (missing images, parsing issues)

ULTIMATE RULE:
Look at the provided screenshot very carefully before generating any code. Your PowerPoint slide MUST be a pixel-perfect replica of this screenshot. Use the HTML code to extract data and understand structure, but the SCREENSHOT is your visual ground truth.

Here is the HTML to convert (verbatim between <HTML> tags):
<HTML>
%s
</HTML>
`

// fixPromptTemplate sends the failed script together with its error
// output and asks for a corrected replacement.
const fixPromptTemplate = `The following Python script, which uses the python-pptx library, failed to execute.
Please analyze the code and the error message to identify and fix the issue.

CRITICAL:
- Provide only the complete, corrected, and runnable Python script.
- Do not include any explanations, apologies, or markdown formatting outside of the code block.
- Ensure the corrected script is a single, self-contained file.
- Pay close attention to common python-pptx API errors like chained .solid().fore_color calls or using non-existent classes like Px.

--- FAULTY CODE ---
` + "```python\n%s\n```" + `

--- ERROR MESSAGE ---
` + "```\n%s\n```" + `

--- CORRECTED PYTHON SCRIPT ---
`

// BuildCodegenPrompt returns the first-attempt prompt for one HTML
// document. The screenshot travels separately as an image part.
func BuildCodegenPrompt(html string) string {
	return fmt.Sprintf(codegenPromptTemplate, html)
}

// BuildFixPrompt returns the repair prompt for a failed attempt. Only
// the immediately preceding code and diagnostic are included; older
// attempts add noise without helping the fix.
func BuildFixPrompt(code, diagnostic string) string {
	return fmt.Sprintf(fixPromptTemplate, code, diagnostic)
}
