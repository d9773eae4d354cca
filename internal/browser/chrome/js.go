package chrome

// jsFirstVisible takes a JSON array of selectors and returns the first one with a visible match.
const jsFirstVisible = `(() => {
  for (const s of %s) {
    const el = document.querySelector(s);
    if (el && el.offsetParent !== null && !el.disabled) return s;
  }
  return "";
})()`

// jsChoose picks options of a select, radio group or checkbox group by visible label.
// Returns "ok", "missing" or a description of the unmatched value.
const jsChoose = `(() => {
  const a = %s;
  const norm = (t) => (t || "").replace(/\s+/g, " ").trim().toLowerCase();
  const nodes = document.querySelectorAll(a.locator);
  if (!nodes.length) return "missing";
  const el = nodes[0];
  const fire = (n) => {
    n.dispatchEvent(new Event("input", {bubbles: true}));
    n.dispatchEvent(new Event("change", {bubbles: true}));
  };
  if (el.tagName === "SELECT") {
    const want = norm(a.values[0]);
    for (const o of el.options) {
      if (norm(o.textContent) === want || norm(o.value) === want) {
        el.value = o.value;
        fire(el);
        return "ok";
      }
    }
    return "no option " + a.values[0];
  }
  let inputs = [];
  if (el.tagName === "FIELDSET") {
    inputs = Array.from(el.querySelectorAll("input[type=radio], input[type=checkbox]"));
  } else {
    inputs = Array.from(nodes);
  }
  const labelOf = (i) => {
    const l = i.id ? document.querySelector('label[for="' + CSS.escape(i.id) + '"]') : i.closest("label");
    return norm(l ? l.textContent : i.value);
  };
  if (inputs.length === 1 && inputs[0].type === "checkbox") {
    const on = ["yes", "true", "checked"].includes(norm(a.values[0]));
    if (inputs[0].checked !== on) inputs[0].click();
    return "ok";
  }
  for (const v of a.values) {
    const want = norm(v);
    const hit = inputs.find((i) => labelOf(i) === want || norm(i.value) === want);
    if (!hit) return "no option " + v;
    if (!hit.checked) {
      const l = hit.id ? document.querySelector('label[for="' + CSS.escape(hit.id) + '"]') : null;
      (l || hit).click();
    }
  }
  return "ok";
})()`

const jsScrollCards = `(() => {
  const cards = document.querySelectorAll(%q);
  cards.forEach((c) => c.scrollIntoView({block: "center"}));
  return cards.length;
})()`

// jsSyncState copies live input state into attributes so OuterHTML shows what was typed or picked.
const jsSyncState = `(() => {
  const root = document.querySelector(%q);
  if (!root) return;
  for (const el of root.querySelectorAll("input, textarea")) {
    if (el.type === "radio" || el.type === "checkbox") {
      el.toggleAttribute("checked", el.checked);
    } else if (el.type !== "file") {
      el.setAttribute("value", el.value);
    }
    if (el.tagName === "TEXTAREA") el.textContent = el.value;
  }
  for (const o of root.querySelectorAll("option")) o.toggleAttribute("selected", o.selected);
})()`
